package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahostbr/kuroryuu/internal/config"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		running, info, err := config.IsDaemonRunning()
		if err != nil {
			return err
		}
		if !running {
			fmt.Println("Daemon not running. Start it with: kuroryuud")
			return nil
		}
		fmt.Printf("Daemon running (PID %d) since %s\n",
			info.PID, info.StartedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}
