package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/stridescan/stridescan/internal/config"
	"github.com/stridescan/stridescan/internal/model"
	"github.com/stridescan/stridescan/pkg/anthropic"
)

// --- Anthropic mock ---

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse wraps body as a single-text-block message response.
func textResponse(body string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: body}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

// reportJSON builds a valid serialized report with the given summary and
// components.
func reportJSON(t *testing.T, summary string, components ...string) string {
	t.Helper()
	report := model.AnalysisReport{
		Summary:    summary,
		Components: components,
		Timestamp:  "2026-06-01T00:00:00Z",
	}
	report.NormalizeStride()
	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	return string(raw)
}

// testPipeline builds a pipeline with pacing disabled and small limits so
// tests run instantly.
func testPipeline(llm anthropic.Client) *Pipeline {
	return New(llm, nil,
		config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929", MaxTokens: 4096},
		config.AnalysisConfig{
			ChunkSize:       4000,
			ChunkOverlap:    200,
			MinSegmentChars: 10,
			BatchSize:       10,
			MaxRetries:      1,
			TopK:            3,
		},
	)
}

// isAnalysisReq matches per-segment analysis requests.
func isAnalysisReq(req anthropic.MessageRequest) bool {
	return req.System == analysisSystemPrompt
}

// isConsolidationReq matches batch/final reduction requests.
func isConsolidationReq(req anthropic.MessageRequest) bool {
	return req.System == consolidationSystemPrompt
}
