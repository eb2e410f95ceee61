package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stridescan/stridescan/internal/pipeline"
	"github.com/stridescan/stridescan/pkg/embed"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <file|->",
	Short: "Split text into chunks, optionally ranked by query relevance",
	Long:  "Splits the input into overlapping chunks. With --query, keeps only the chunks most relevant to the query (requires an OpenAI key for embedding-based ranking; falls back to positional selection without one).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		if len(text) == 0 {
			return eris.New("chunks: input is empty")
		}

		if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
			cfg.Analysis.TopK = topK
		}

		// Chunking never talks to the analysis service, so no key or store
		// is required here.
		var embedder embed.Embedder
		if cfg.OpenAI.Key != "" {
			embedder = embed.NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.EmbedModel)
		}
		p := pipeline.New(nil, embedder, cfg.Anthropic, cfg.Analysis)

		query, _ := cmd.Flags().GetString("query")
		chunks := p.ProcessText(ctx, string(text), query)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(chunks)
		}

		for i, c := range chunks {
			fmt.Printf("--- Chunk %d (%d chars) ---\n%s\n\n", i+1, len(c), c)
		}
		return nil
	},
}

func init() {
	chunksCmd.Flags().String("query", "", "rank chunks by relevance to this query")
	chunksCmd.Flags().Int("top-k", 0, "number of chunks to keep when ranking (default from config)")
	chunksCmd.Flags().Bool("json", false, "print chunks as a JSON array")
	rootCmd.AddCommand(chunksCmd)
}
