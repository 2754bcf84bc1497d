package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/service"
)

var listCmd = &cobra.Command{
	Use:   "list [table]",
	Short: "List archived rows, newest first",
	Long: `List archived rows, newest first. The optional table restricts the
listing to one origin; "all" or no argument lists every origin.

Example:
  trashctl list
  trashctl list products --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.FilterAll
		if len(args) == 1 {
			filter = args[0]
		}

		data, err := trash.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(data)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTABLE\tLABEL\tDELETED AT\tDELETED BY")
		for _, item := range data.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.DisplayName, item.Label, item.DeletedAt.Format(time.RFC3339), item.DeletedBy.Username)
		}
		return w.Flush()
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Move an archived row back into its table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := trash.Restore(cmd.Context(), args[0], actor())
		if err != nil {
			return notify(service.ActionRestore, err)
		}
		if flagJSON {
			return printJSON(result)
		}
		return printNotification(result.Notification)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge <id>",
	Short: "Permanently delete one archived row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := trash.PurgeOne(cmd.Context(), args[0], actor())
		if err != nil {
			return notify(service.ActionPurge, err)
		}
		if flagJSON {
			return printJSON(result)
		}
		return printNotification(result.Notification)
	},
}

var emptyTable string

var emptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Permanently delete every archived row of a table, or all of them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := trash.PurgeAll(cmd.Context(), emptyTable, actor())
		if err != nil {
			return notify(service.ActionEmpty, err)
		}
		if flagJSON {
			return printJSON(result)
		}
		return printNotification(result.Notification)
	},
}

var sweepRetention time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge entries archived longer than the retention period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := sweepRetention
		if retention == 0 {
			retention = cfg.TrashRetention
		}

		n, err := trash.Sweep(cmd.Context(), retention)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"deleted_count": n, "retention": retention.String()})
		}
		fmt.Printf("purged %d entries older than %s\n", n, retention)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Migrate(); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	emptyCmd.Flags().StringVar(&emptyTable, "table", service.FilterAll, `origin table to empty, or "all"`)
	sweepCmd.Flags().DurationVar(&sweepRetention, "retention", 0, "retention period (default TRASH_RETENTION)")
}

func notify(action service.Action, err error) error {
	note := service.FailureNotification(action, err)
	fmt.Fprintf(os.Stderr, "%s: %s\n", note.Title, note.Description)
	return err
}

func printNotification(note model.Notification) error {
	_, err := fmt.Printf("%s: %s\n", note.Title, note.Description)
	return err
}

func printJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
