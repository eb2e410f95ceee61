package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStride_Empty(t *testing.T) {
	r := &AnalysisReport{}
	r.NormalizeStride()

	assert.Len(t, r.StrideCategories, 6)
	for i, c := range r.StrideCategories {
		assert.Equal(t, StrideTitles[i], c.Title)
		assert.NotNil(t, c.Risks)
		assert.Empty(t, c.Risks)
		assert.NotEmpty(t, c.Description)
	}
}

func TestNormalizeStride_MergesDuplicatesAndVariants(t *testing.T) {
	r := &AnalysisReport{
		StrideCategories: []StrideCategory{
			{Title: "spoofing", Risks: []Risk{{Description: "a", Severity: SeverityHigh}}},
			{Title: "Spoofing Identity", Risks: []Risk{{Description: "b", Severity: SeverityLow}}},
			{Title: "Tampering", Description: "model-provided", Risks: []Risk{{Description: "c", Severity: SeverityMedium}}},
			{Title: "Something Else", Risks: []Risk{{Description: "dropped"}}},
		},
	}
	r.NormalizeStride()

	assert.Len(t, r.StrideCategories, 6)
	assert.Equal(t, "Spoofing", r.StrideCategories[0].Title)
	assert.Len(t, r.StrideCategories[0].Risks, 2)
	assert.Equal(t, "model-provided", r.StrideCategories[1].Description)
	for _, c := range r.StrideCategories {
		for _, risk := range c.Risks {
			assert.NotEqual(t, "dropped", risk.Description)
		}
	}
}

func TestNormalizeStride_PreservesCanonicalOrder(t *testing.T) {
	r := &AnalysisReport{
		StrideCategories: []StrideCategory{
			{Title: "Elevation of Privilege"},
			{Title: "Spoofing"},
		},
	}
	r.NormalizeStride()

	titles := make([]string, 0, 6)
	for _, c := range r.StrideCategories {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, StrideTitles[:], titles)
}

func TestEnsureTimestamp(t *testing.T) {
	r := &AnalysisReport{}
	r.EnsureTimestamp()
	assert.NotEmpty(t, r.Timestamp)

	r2 := &AnalysisReport{Timestamp: "2026-01-01T00:00:00Z"}
	r2.EnsureTimestamp()
	assert.Equal(t, "2026-01-01T00:00:00Z", r2.Timestamp)
}

func TestDegradedResult(t *testing.T) {
	res := Degraded("not json", "parse failed")
	assert.False(t, res.OK())
	assert.Equal(t, "not json", res.Raw)
	assert.Equal(t, "parse failed", res.Reason)
	assert.NotEmpty(t, res.Timestamp)
}
