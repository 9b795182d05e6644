package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List tracked sessions from the control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := controlClient()
		if err != nil {
			return err
		}

		sessions, err := client.List(context.Background())
		if err != nil {
			return fmt.Errorf("control API unreachable: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBACKEND\tSTATUS\tMODEL\tTURNS\tTOOLS\tCOST\tSTARTED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t$%.4f\t%s\n",
				s.ID, s.Backend, s.Status, s.Model, s.NumTurns, s.ToolCallCount,
				s.TotalCostUSD, s.StartedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}
