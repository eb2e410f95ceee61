// Package rank orders candidate chunks by embedding similarity to a query.
// It serves the simpler query-driven chunking path and is independent of the
// analysis pipeline.
package rank

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/stridescan/stridescan/pkg/embed"
)

type scored struct {
	index int
	score float64
}

// TopK embeds the query and every chunk, scores chunks by cosine similarity
// against the query vector, and returns the contents of the k best matches.
// Ties keep original order via the index tiebreak. On any embedding failure
// it falls back to the first k chunks in original order rather than failing
// the caller.
func TopK(ctx context.Context, embedder embed.Embedder, query string, chunks []string, k int) []string {
	if k <= 0 {
		k = 3
	}
	if len(chunks) <= k {
		return chunks
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		zap.L().Warn("rank: query embedding failed, returning first chunks", zap.Error(err))
		return chunks[:k]
	}

	scores := make([]scored, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := embedder.Embed(ctx, chunk)
		if err != nil {
			zap.L().Warn("rank: chunk embedding failed, returning first chunks",
				zap.Int("chunk", i),
				zap.Error(err),
			)
			return chunks[:k]
		}
		scores = append(scores, scored{index: i, score: Cosine(queryVec, vec)})
	}

	sort.Slice(scores, func(a, b int) bool {
		if scores[a].score != scores[b].score {
			return scores[a].score > scores[b].score
		}
		return scores[a].index < scores[b].index
	})

	out := make([]string, 0, k)
	for _, s := range scores[:k] {
		out = append(out, chunks[s.index])
	}
	return out
}

// Cosine computes dot(a,b) / (|a|·|b|). Mismatched lengths or zero vectors
// score zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
