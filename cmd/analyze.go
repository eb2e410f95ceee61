package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Run STRIDE analysis over an architecture description",
	Long:  "Reads an architecture description from a file (or stdin with '-'), analyzes it, and prints the consolidated report as markdown or JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		if len(text) == 0 {
			return eris.New("analyze: input is empty")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		save, _ := cmd.Flags().GetBool("save")

		var runID string
		if save {
			run, err := env.Store.CreateRun(ctx, len(text))
			if err != nil {
				return eris.Wrap(err, "analyze: create run")
			}
			runID = run.ID
			_ = env.Store.UpdateRunStatus(ctx, runID, model.RunStatusRunning)
		}

		result, err := env.Pipeline.AnalyzeSecurity(ctx, string(text))
		if err != nil {
			if runID != "" {
				_ = env.Store.FailRun(ctx, runID, err.Error())
			}
			return eris.Wrap(err, "analyze")
		}

		if runID != "" {
			if err := env.Store.UpdateRunResult(ctx, runID, result); err != nil {
				zap.L().Warn("analyze: save result failed", zap.Error(err))
			} else {
				fmt.Fprintf(os.Stderr, "Saved run %s\n", runID)
			}
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Print(renderMarkdown(result))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the raw result as JSON instead of markdown")
	analyzeCmd.Flags().Bool("save", false, "persist the run to the run-history store")
	rootCmd.AddCommand(analyzeCmd)
}

// readInput loads an argument that is either a file path or "-" for stdin.
func readInput(arg string) ([]byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, eris.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(arg)
	return data, eris.Wrapf(err, "read %s", arg)
}
