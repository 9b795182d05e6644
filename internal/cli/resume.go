package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id> <prompt>",
	Short: "Resume a terminated session with a new prompt",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := controlClient()
		if err != nil {
			return err
		}

		id, err := client.Resume(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to resume session: %w", err)
		}
		fmt.Printf("Resumed session %s\n", id)
		return nil
	},
}
