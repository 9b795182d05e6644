package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <session-id>",
	Short: "Stop a running session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := controlClient()
		if err != nil {
			return err
		}

		ok, err := client.Stop(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}
		if !ok {
			fmt.Printf("Session %s was not running\n", args[0])
			return nil
		}
		fmt.Printf("Stopped session %s\n", args[0])
		return nil
	},
}
