package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/pipeline"
	"github.com/stridescan/stridescan/internal/store"
	anthropicpkg "github.com/stridescan/stridescan/pkg/anthropic"
	"github.com/stridescan/stridescan/pkg/embed"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the analyze/chunks/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens and migrates the configured run-history backend.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline sets up the store and API clients and builds the Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	// The embedder is optional: without it the chunk ranking path degrades
	// to positional selection.
	var embedder embed.Embedder
	if cfg.OpenAI.Key != "" {
		embedder = embed.NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.EmbedModel)
		zap.L().Info("embedding-based chunk ranking enabled",
			zap.String("model", cfg.OpenAI.EmbedModel),
		)
	} else {
		zap.L().Debug("STRIDESCAN_OPENAI_KEY not set, chunk ranking falls back to positional selection")
	}

	p := pipeline.New(anthropicClient, embedder, cfg.Anthropic, cfg.Analysis)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
	}, nil
}
