package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bidwatch-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bidwatch-cli",
	Short: "Procurement opportunity harvester",
	Long:  "Crawls a procurement listing grid page by page, enriches each opportunity from its detail fragments, and writes one deduplicated JSON array per run.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
