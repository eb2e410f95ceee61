package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Secrets are redacted; everything else prints as loaded.
		redacted := *cfg
		redacted.Anthropic.Key = redactSecret(redacted.Anthropic.Key)
		redacted.OpenAI.Key = redactSecret(redacted.OpenAI.Key)
		redacted.Store.DatabaseURL = redactSecret(redacted.Store.DatabaseURL)

		out, err := yaml.Marshal(redacted)
		if err != nil {
			return eris.Wrap(err, "config show: marshal")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func redactSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
