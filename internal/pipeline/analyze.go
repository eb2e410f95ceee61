package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stridescan/stridescan/internal/model"
)

// AnalyzeSegments produces one partial result per segment, in input order.
// A segment whose response cannot be structured still yields a degraded
// entry, so the processed/total counters stay accurate; only an aborted
// remote call fails the whole pass. With concurrency above one the
// independent per-segment calls fan out behind a bounded gate, still paced
// by the shared limiter.
func (p *Pipeline) AnalyzeSegments(ctx context.Context, segs []model.Segment) ([]model.Result, error) {
	if len(segs) == 0 {
		return nil, nil
	}

	results := make([]model.Result, len(segs))

	analyzeOne := func(ctx context.Context, i int) error {
		seg := segs[i]
		res, err := p.call(ctx, analysisSystemPrompt, analysisUserPrompt(seg, i+1, len(segs)))
		if err != nil {
			return eris.Wrapf(err, "pipeline: analyze segment %d/%d", i+1, len(segs))
		}
		if !res.OK() {
			zap.L().Warn("pipeline: segment analysis degraded",
				zap.Int("segment", i+1),
				zap.String("kind", string(seg.Kind)),
			)
		}
		results[i] = res
		return nil
	}

	if p.cfg.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Concurrency)
		for i := range segs {
			g.Go(func() error { return analyzeOne(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}

	for i := range segs {
		if err := analyzeOne(ctx, i); err != nil {
			return nil, err
		}
	}
	return results, nil
}
