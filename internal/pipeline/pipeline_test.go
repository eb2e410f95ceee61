package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stridescan/stridescan/pkg/anthropic"
)

const sampleArchitecture = `Component: A is the public API gateway handling inbound requests

Component: B is the PostgreSQL database storing customer records

A sends data to B over an internal TLS connection`

func TestAnalyzeSecurity_EndToEnd(t *testing.T) {
	llm := &mockLLM{}
	p := testPipeline(llm)

	// Three segments: two components and one connection group. Each gets
	// exactly one analysis call, then one consolidation call merges them.
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return isAnalysisReq(req) && strings.Contains(req.Messages[0].Content, "API gateway")
	})).Return(textResponse(reportJSON(t, "gateway analysis", "A")), nil).Once()

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return isAnalysisReq(req) && strings.Contains(req.Messages[0].Content, "PostgreSQL")
	})).Return(textResponse(reportJSON(t, "database analysis", "B")), nil).Once()

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return isAnalysisReq(req) && strings.Contains(req.Messages[0].Content, "sends data to")
	})).Return(textResponse(reportJSON(t, "flow analysis", "A", "B")), nil).Once()

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isConsolidationReq)).
		Return(textResponse(reportJSON(t, "consolidated system analysis", "A", "B")), nil).Once()

	result, err := p.AnalyzeSecurity(context.Background(), sampleArchitecture)

	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, "consolidated system analysis", result.Report.Summary)
	assert.Contains(t, result.Report.Components, "A")
	assert.Contains(t, result.Report.Components, "B")
	assert.Len(t, result.Report.StrideCategories, 6)
	assert.Equal(t, 3, result.ProcessedChunks)
	assert.Equal(t, 3, result.TotalChunks)
	assert.Empty(t, result.Note)
	llm.AssertExpectations(t)
	llm.AssertNumberOfCalls(t, "CreateMessage", 4)
}

func TestAnalyzeSecurity_NotesDegradedSegments(t *testing.T) {
	llm := &mockLLM{}
	p := testPipeline(llm)

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isAnalysisReq)).
		Return(textResponse(reportJSON(t, "ok", "A")), nil).Twice()
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isAnalysisReq)).
		Return(textResponse("not a report at all"), nil).Once()
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isConsolidationReq)).
		Return(textResponse(reportJSON(t, "merged", "A", "B")), nil).Once()

	result, err := p.AnalyzeSecurity(context.Background(), sampleArchitecture)

	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Contains(t, result.Note, "1 of 3 segments")
}

func TestAnalyzeSecurity_DegradedFinalKeepsRawOutput(t *testing.T) {
	llm := &mockLLM{}
	p := testPipeline(llm)

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isAnalysisReq)).
		Return(textResponse(reportJSON(t, "ok", "A")), nil).Times(3)
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isConsolidationReq)).
		Return(textResponse("The merged findings are, in prose form, as follows."), nil).Once()

	result, err := p.AnalyzeSecurity(context.Background(), sampleArchitecture)

	require.NoError(t, err)
	assert.Nil(t, result.Report)
	assert.Contains(t, result.Raw, "prose form")
	assert.NotEmpty(t, result.Note)
}

func TestAnalyzeSecurity_ShortInputStillAnalyzed(t *testing.T) {
	llm := &mockLLM{}
	p := testPipeline(llm)

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(isAnalysisReq)).
		Return(textResponse(reportJSON(t, "tiny system", "Cache")), nil).Once()

	result, err := p.AnalyzeSecurity(context.Background(), "Component: Cache layer in front of the store")

	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, "tiny system", result.Report.Summary)
	assert.Equal(t, 1, result.TotalChunks)
	// A lone partial is final as-is: no consolidation call.
	llm.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestProcessText_NoQueryReturnsAllChunks(t *testing.T) {
	p := testPipeline(&mockLLM{})
	p.cfg.ChunkSize = 20
	p.cfg.ChunkOverlap = 0

	text := strings.Repeat("alpha beta gamma ", 10)
	chunks := p.ProcessText(context.Background(), text, "")

	require.NotEmpty(t, chunks)
	assert.Greater(t, len(chunks), p.cfg.TopK)
}

func TestProcessText_QueryWithoutEmbedderFallsBackToFirstK(t *testing.T) {
	p := testPipeline(&mockLLM{})
	p.cfg.ChunkSize = 20
	p.cfg.ChunkOverlap = 0

	text := strings.Repeat("alpha beta gamma ", 10)
	all := p.ProcessText(context.Background(), text, "")
	ranked := p.ProcessText(context.Background(), text, "databases")

	require.Len(t, ranked, p.cfg.TopK)
	assert.Equal(t, all[:p.cfg.TopK], ranked)
}

func TestProcessText_EmptyInput(t *testing.T) {
	p := testPipeline(&mockLLM{})

	chunks := p.ProcessText(context.Background(), "", "anything")
	assert.Empty(t, chunks)
}

func TestCall_RecoversFencedOutput(t *testing.T) {
	llm := &mockLLM{}
	p := testPipeline(llm)

	fenced := "```json\n" + reportJSON(t, "fenced", "A") + "\n```"
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(fenced), nil).Once()

	res, err := p.call(context.Background(), analysisSystemPrompt, "Fragment 1 of 1")

	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "fenced", res.Report.Summary)
}
