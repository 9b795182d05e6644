package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahostbr/kuroryuu/internal/config"
	"github.com/ahostbr/kuroryuu/internal/daemon/archive"
)

var archivedCmd = &cobra.Command{
	Use:   "archived",
	Short: "Inspect archived sessions",
}

var archivedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchiveStore()
		if err != nil {
			return err
		}

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No archived sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tBACKEND\tARCHIVED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.ID, r.Snapshot.Status, r.Snapshot.Backend,
				r.ArchivedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var archivedShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one archived session including its log excerpt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchiveStore()
		if err != nil {
			return err
		}

		record, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("archived session not found: %s", args[0])
		}

		fmt.Printf("ID:        %s\n", record.ID)
		fmt.Printf("Status:    %s\n", record.Snapshot.Status)
		fmt.Printf("Backend:   %s\n", record.Snapshot.Backend)
		fmt.Printf("Started:   %s\n", record.Snapshot.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Archived:  %s\n", record.ArchivedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Turns:     %d\n", record.Snapshot.NumTurns)
		fmt.Printf("Cost:      $%.4f\n", record.Snapshot.TotalCostUSD)
		if record.Logs != "" {
			fmt.Println("\n--- logs ---")
			fmt.Println(record.Logs)
		}
		return nil
	},
}

var archivedDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete one archived session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchiveStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func openArchiveStore() (*archive.Store, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	dir, err := config.GlobalArchiveDir()
	if err != nil {
		return nil, err
	}
	return archive.NewStore(dir, settings.Archive.MaxRecords)
}

func init() {
	archivedCmd.AddCommand(archivedDeleteCmd)
	archivedCmd.AddCommand(archivedListCmd)
	archivedCmd.AddCommand(archivedShowCmd)
}
