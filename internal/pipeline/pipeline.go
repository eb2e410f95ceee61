// Package pipeline drives the analysis flow: segment the input, analyze
// each segment with one remote call, and reduce the partial reports into a
// single final report. A single shared pacer spaces all remote calls; only
// rate-limit rejections are retried, and malformed model output is repaired
// or degraded rather than surfaced as an error.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/stridescan/stridescan/internal/config"
	"github.com/stridescan/stridescan/internal/model"
	"github.com/stridescan/stridescan/internal/rank"
	"github.com/stridescan/stridescan/internal/repair"
	"github.com/stridescan/stridescan/internal/resilience"
	"github.com/stridescan/stridescan/internal/segment"
	"github.com/stridescan/stridescan/pkg/anthropic"
	"github.com/stridescan/stridescan/pkg/embed"
)

// Pipeline holds the clients and tuning for security analysis runs.
type Pipeline struct {
	llm      anthropic.Client
	embedder embed.Embedder // optional, ranking path only
	ai       config.AnthropicConfig
	cfg      config.AnalysisConfig
	pacer    *Pacer
	retry    resilience.RetryConfig
}

// New creates a Pipeline. embedder may be nil; the ranking path then
// degrades to positional selection.
func New(llm anthropic.Client, embedder embed.Embedder, ai config.AnthropicConfig, cfg config.AnalysisConfig) *Pipeline {
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	retry.OnRetry = resilience.RetryLogger("create message")

	return &Pipeline{
		llm:      llm,
		embedder: embedder,
		ai:       ai,
		cfg:      cfg,
		pacer:    NewPacer(cfg.DelayMin(), cfg.DelayMax()),
		retry:    retry,
	}
}

// AnalyzeSecurity runs the full pipeline over one architecture description.
// It fails only on aborted remote calls (exhausted rate-limit retries or a
// non-retryable service fault); segmentation problems and malformed model
// output are absorbed into the result.
func (p *Pipeline) AnalyzeSecurity(ctx context.Context, text string) (*model.AnalyzeResult, error) {
	text = norm.NFC.String(text)

	segs := segment.Split(text, segment.Options{
		ChunkSize:    p.cfg.ChunkSize,
		ChunkOverlap: p.cfg.ChunkOverlap,
		MinChars:     p.cfg.MinSegmentChars,
	})
	zap.L().Info("pipeline: input segmented",
		zap.Int("input_len", len(text)),
		zap.Int("segments", len(segs)),
	)

	partials, err := p.AnalyzeSegments(ctx, segs)
	if err != nil {
		return nil, err
	}

	final, err := p.Reduce(ctx, partials)
	if err != nil {
		return nil, err
	}

	result := &model.AnalyzeResult{
		ProcessedChunks: len(partials),
		TotalChunks:     len(segs),
	}
	if final.OK() {
		result.Report = final.Report
		if n := countDegraded(partials); n > 0 {
			result.Note = fmt.Sprintf("%d of %d segments could not be structured and were consolidated from raw model output", n, len(partials))
		}
	} else {
		result.Raw = final.Raw
		result.Note = final.Reason
	}
	return result, nil
}

// ProcessText is the plain chunking path: window-split the text and, when a
// query is given, keep only the most relevant chunks.
func (p *Pipeline) ProcessText(ctx context.Context, text, query string) []string {
	text = norm.NFC.String(text)
	chunks := segment.Window(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if query == "" || len(chunks) == 0 {
		return chunks
	}
	if p.embedder == nil {
		if len(chunks) > p.cfg.TopK && p.cfg.TopK > 0 {
			return chunks[:p.cfg.TopK]
		}
		return chunks
	}
	return rank.TopK(ctx, p.embedder, query, chunks, p.cfg.TopK)
}

func countDegraded(results []model.Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// call issues one paced, retried remote invocation and recovers the body.
func (p *Pipeline) call(ctx context.Context, system, user string) (model.Result, error) {
	if err := p.pacer.Wait(ctx); err != nil {
		return model.Result{}, err
	}

	req := anthropic.MessageRequest{
		Model:     p.ai.Model,
		MaxTokens: p.ai.MaxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	}
	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.llm.CreateMessage(ctx, req)
	})
	if err != nil {
		return model.Result{}, err
	}

	return repair.Recover(resp.Text()), nil
}
