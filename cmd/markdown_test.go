package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stridescan/stridescan/internal/model"
)

func TestRenderMarkdown_StructuredReport(t *testing.T) {
	report := &model.AnalysisReport{
		Summary:    "An API gateway fronting a customer database.",
		Components: []string{"API Gateway", "Customer DB"},
		DataFlows:  []string{"API Gateway -> Customer DB: record lookups"},
		StrideCategories: []model.StrideCategory{
			{Title: "Spoofing", Risks: []model.Risk{
				{Description: "unauthenticated internal traffic", Severity: "High", Remediation: "mutual TLS"},
			}},
		},
		Recommendations: []model.Recommendation{
			{Title: "Enable mTLS", Description: "between gateway and database", Priority: "High"},
		},
		Timestamp: "2026-06-01T00:00:00Z",
	}
	report.NormalizeStride()

	out := renderMarkdown(&model.AnalyzeResult{
		Report:          report,
		ProcessedChunks: 2,
		TotalChunks:     2,
	})

	assert.Contains(t, out, "# Security Analysis Report")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "- API Gateway")
	assert.Contains(t, out, "record lookups")
	assert.Contains(t, out, "**[High]** unauthenticated internal traffic")
	assert.Contains(t, out, "Remediation: mutual TLS")
	assert.Contains(t, out, "**Enable mTLS** (High)")
	assert.Contains(t, out, "2/2 segments analyzed")

	// All six category headings appear, empty ones with a placeholder.
	for _, title := range model.StrideTitles {
		assert.Contains(t, out, "### "+title)
	}
	assert.Equal(t, 5, strings.Count(out, "_No risks identified._"))
}

func TestRenderMarkdown_DegradedResult(t *testing.T) {
	out := renderMarkdown(&model.AnalyzeResult{
		Raw:  "The system has several issues, described in prose.",
		Note: "no json object found",
	})

	assert.Contains(t, out, "could not be fully structured")
	assert.Contains(t, out, "no json object found")
	assert.Contains(t, out, "described in prose")
	assert.NotContains(t, out, "## Summary")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abcdef"))
	assert.Equal(t, "short", truncateID("short"))
}
