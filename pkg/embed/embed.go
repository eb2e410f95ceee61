// Package embed wraps the remote embedding service used by the relevance
// ranker.
package embed

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
)

// Embedder produces one embedding vector per text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// openaiEmbedder implements Embedder using the OpenAI embeddings API.
type openaiEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an Embedder backed by the OpenAI API. An empty model
// selects text-embedding-3-small.
func NewOpenAI(apiKey, model string) Embedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &openaiEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, eris.Wrap(err, "embed: create embedding")
	}
	if len(resp.Data) == 0 {
		return nil, eris.New("embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
