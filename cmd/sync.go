package cmd

import (
	"encoding/json"
	"os"

	"deal-sync/core/config"
	"deal-sync/core/database"
	"deal-sync/core/logger"
	"deal-sync/feature/deals"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncInput      string
	syncStrategy   string
	syncResolution string
)

// syncCmd runs a single inbound pass from a local JSON file, for backfills
// and for trying out strategy settings without touching the schedule.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync pass from a JSON file",
	Long: `Reads source records from a JSON file, reconciles them into the deals
table once, and prints the run report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return err
		}
		if syncStrategy != "" {
			cfg.Sync.Strategy = syncStrategy
		}
		if syncResolution != "" {
			cfg.Sync.Resolution = syncResolution
		}

		logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
		if err != nil {
			return err
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		if err := deals.Migrate(db); err != nil {
			return err
		}

		service := deals.NewService(db, nil, cfg.Sync, logg)
		source := deals.NewFileSource(syncInput)

		result, err := service.RunInbound(cmd.Context(), source)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		if !result.Success {
			logg.Warn("sync pass finished with failures or conflicts",
				zap.Int("failed", result.Failed),
				zap.Int("conflicts", len(result.Conflicts)),
			)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncInput, "input", "", "path to a JSON file of source records")
	syncCmd.Flags().StringVar(&syncStrategy, "strategy", "", "override the configured strategy for this pass")
	syncCmd.Flags().StringVar(&syncResolution, "resolution", "", "override the configured resolution for this pass")
	_ = syncCmd.MarkFlagRequired("input")
	RootCmd.AddCommand(syncCmd)
}
