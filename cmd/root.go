package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stridescan",
	Short: "STRIDE threat analysis for architecture descriptions",
	Long:  "Segments an architecture description, analyzes each fragment for STRIDE threats via Claude, and consolidates the partial findings into one security report.",
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
