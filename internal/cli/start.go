package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahostbr/kuroryuu/internal/config"
	"github.com/ahostbr/kuroryuu/internal/control"
	"github.com/ahostbr/kuroryuu/internal/models"
)

var (
	startBackend string
	startModel   string
	startRole    string
	startCwd     string
	startWave    string
)

var startCmd = &cobra.Command{
	Use:   "start <prompt>",
	Short: "Start a new agent session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := controlClient()
		if err != nil {
			return err
		}

		id, err := client.Start(context.Background(), models.SpawnConfig{
			Backend: models.Backend(startBackend),
			Prompt:  args[0],
			Model:   startModel,
			Role:    startRole,
			Cwd:     startCwd,
			WaveID:  startWave,
		})
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		fmt.Printf("Started session %s\n", id)
		return nil
	},
}

// controlClient builds a control API client from the global settings.
func controlClient() (*control.Client, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	return control.New(settings.Control.BaseURL, time.Duration(settings.Control.TimeoutSeconds)*time.Second), nil
}

func init() {
	startCmd.Flags().StringVar(&startBackend, "backend", string(models.BackendSDK), "Backend to run the session with (sdk, cli, pty)")
	startCmd.Flags().StringVar(&startModel, "model", "", "Model override")
	startCmd.Flags().StringVar(&startRole, "role", "", "Role label for the session")
	startCmd.Flags().StringVar(&startCwd, "cwd", "", "Working directory for the session")
	startCmd.Flags().StringVar(&startWave, "wave", "", "Wave id to group the session under")
}
