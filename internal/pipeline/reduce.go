package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/model"
)

// maxDegradedRawLen bounds how much unstructured text one degraded partial
// contributes to a consolidation prompt.
const maxDegradedRawLen = 2000

// Reduce consolidates partial results into one. A single partial is final
// as-is (timestamp ensured) without any remote call. Multiple partials are
// reduced in batches of at most BatchSize, one consolidation call per batch;
// when more than one batch existed, one further pass merges the
// intermediates. No single request ever carries more than BatchSize
// serialized reports, which is what keeps reduction inside the remote
// service's input-size limits.
func (p *Pipeline) Reduce(ctx context.Context, results []model.Result) (model.Result, error) {
	switch len(results) {
	case 0:
		return model.Degraded("", "nothing to reduce"), nil
	case 1:
		res := results[0]
		if res.OK() {
			res.Report.EnsureTimestamp()
		}
		return res, nil
	}

	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var intermediates []model.Result
	for start := 0; start < len(results); start += batchSize {
		end := min(start+batchSize, len(results))
		batch := results[start:end]

		res, err := p.consolidate(ctx, batch)
		if err != nil {
			return model.Result{}, eris.Wrapf(err, "pipeline: reduce batch %d", len(intermediates)+1)
		}
		intermediates = append(intermediates, res)
	}

	if len(intermediates) == 1 {
		return intermediates[0], nil
	}

	zap.L().Info("pipeline: final reduction pass",
		zap.Int("intermediates", len(intermediates)),
	)
	final, err := p.consolidate(ctx, intermediates)
	if err != nil {
		return model.Result{}, eris.Wrap(err, "pipeline: final reduction")
	}
	return final, nil
}

// consolidate issues one reduction call over a batch of results.
func (p *Pipeline) consolidate(ctx context.Context, batch []model.Result) (model.Result, error) {
	serialized := make([]string, 0, len(batch))
	for _, r := range batch {
		serialized = append(serialized, serializeResult(r))
	}
	return p.call(ctx, consolidationSystemPrompt, consolidationUserPrompt(serialized))
}

// serializeResult renders a partial for inclusion in a consolidation
// prompt. Degraded partials contribute an explicit error marker plus their
// bounded raw text, so the consolidated report can still mention what could
// not be structured.
func serializeResult(r model.Result) string {
	if r.OK() {
		raw, err := json.Marshal(r.Report)
		if err != nil {
			return `{"error": true, "note": "report could not be serialized"}`
		}
		return string(raw)
	}

	rawText := r.Raw
	if len(rawText) > maxDegradedRawLen {
		rawText = rawText[:maxDegradedRawLen]
	}
	marker, _ := json.Marshal(map[string]any{
		"error":     true,
		"note":      r.Reason,
		"rawOutput": rawText,
		"timestamp": r.Timestamp,
	})
	return string(marker)
}
