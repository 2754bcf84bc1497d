package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-resell-backoffice/internal/config"
	"go-resell-backoffice/internal/database"
	"go-resell-backoffice/internal/logger"
	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/repository"
	"go-resell-backoffice/internal/schema"
	"go-resell-backoffice/internal/service"
)

// flagKeys maps persistent flags onto the environment keys config.Parse
// reads, so a flag overrides the variable of the same meaning.
var flagKeys = map[string]string{
	"db-driver":    "DB_DRIVER",
	"database-url": "DATABASE_URL",
	"log-level":    "LOG_LEVEL",
}

var (
	cfg   *config.Config
	db    *database.DB
	trash *service.TrashService
)

// loadConfig layers flags over the config file over the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, key := range config.Keys {
		_ = v.BindEnv(key)
	}

	if flagConfigFile != "" {
		v.SetConfigFile(flagConfigFile)
		if strings.HasSuffix(flagConfigFile, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", flag, err)
		}
	}

	parsed := config.Parse(v.GetString)
	if parsed.DBDriver != config.DriverPostgres && parsed.DBDriver != config.DriverSQLite {
		return nil, userError(fmt.Errorf("unsupported database driver %q", parsed.DBDriver))
	}
	return parsed, nil
}

func openBackoffice(cmd *cobra.Command) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return userError(err)
	}
	// Logs go to stderr so stdout stays parseable.
	slog.SetDefault(slog.New(logger.New(os.Stderr, level, cfg.LogFormat)))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err = database.Open(ctx, database.Options{
		Driver:   cfg.DBDriver,
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if cmd != migrateCmd {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	audit := service.NewAuditService(repository.NewAuditRepository(db.Store))
	trash = service.NewTrashService(db.Store, schema.BackOffice(), nil, nil, audit, nil)
	return nil
}

func closeBackoffice() {
	if db != nil {
		db.Close()
		db = nil
	}
}

func actor() model.AuditActor {
	return model.AuditActor{Username: flagActor, Role: "cli"}
}

// errUser marks errors caused by the invocation rather than the system.
type errUser struct{ err error }

func (e errUser) Error() string { return e.err.Error() }
func (e errUser) Unwrap() error { return e.err }

func userError(err error) error { return errUser{err: err} }

func exitCode(err error) int {
	var usage errUser
	switch {
	case errors.As(err, &usage),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrTrashItemNotFound),
		errors.Is(err, model.ErrConstraintViolation),
		errors.Is(err, model.ErrUnknownTable):
		return exitUserError
	}
	return exitSysError
}
