// Command trashctl operates the back-office trash from a terminal: list,
// restore and purge archived rows, run the retention sweep and apply
// migrations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var (
	flagConfigFile string
	flagJSON       bool
	flagActor      string
)

var rootCmd = &cobra.Command{
	Use:           "trashctl",
	Short:         "Operate the back-office trash",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return openBackoffice(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeBackoffice()
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfigFile, "config", "", "config file (yaml, json or .env)")
	flags.String("db-driver", "", "database driver: postgres or sqlite (env DB_DRIVER)")
	flags.String("database-url", "", "database URL or SQLite path (env DATABASE_URL)")
	flags.String("log-level", "", "log level (env LOG_LEVEL)")
	flags.BoolVar(&flagJSON, "json", false, "output as JSON")
	flags.StringVar(&flagActor, "actor", "trashctl", "username recorded in the audit log")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(emptyCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}
