package model

import (
	"strings"
	"time"
)

// SegmentKind classifies an analyzable unit of architecture text.
type SegmentKind string

const (
	SegmentComponent       SegmentKind = "component"
	SegmentMetadata        SegmentKind = "metadata"
	SegmentConnectionGroup SegmentKind = "connection_group"
)

// Segment is one classified, analyzable unit of input text. Segments are
// immutable once produced; ordering within a segment list is preserved
// through analysis.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
}

// Severity levels for risks and recommendation priorities.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
)

// Risk is a single identified threat within a STRIDE category.
type Risk struct {
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Remediation    string `json:"remediation"`
	TechnicalNotes string `json:"technicalNotes,omitempty"`
}

// StrideCategory groups risks under one of the six STRIDE titles.
type StrideCategory struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Risks       []Risk `json:"risks"`
}

// Recommendation is an actionable hardening suggestion.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// AnalysisReport is the canonical structured output shape. Partial,
// intermediate, and final reports all share it; reduction is re-entrant.
type AnalysisReport struct {
	Summary          string           `json:"summary"`
	Components       []string         `json:"components"`
	DataFlows        []string         `json:"dataFlows"`
	Keywords         []string         `json:"keywords"`
	StrideCategories []StrideCategory `json:"strideCategories"`
	Recommendations  []Recommendation `json:"recommendations"`
	Timestamp        string           `json:"timestamp"`
}

// StrideTitles are the six fixed category titles every report must carry,
// in canonical order.
var StrideTitles = [6]string{
	"Spoofing",
	"Tampering",
	"Repudiation",
	"Information Disclosure",
	"Denial of Service",
	"Elevation of Privilege",
}

var strideDescriptions = map[string]string{
	"Spoofing":               "Impersonating a user, component, or service identity.",
	"Tampering":              "Unauthorized modification of data or code.",
	"Repudiation":            "Performing actions that cannot be traced or proven.",
	"Information Disclosure": "Exposing information to parties not authorized to see it.",
	"Denial of Service":      "Degrading or blocking service availability.",
	"Elevation of Privilege": "Gaining capabilities beyond those granted.",
}

// NormalizeStride rewrites the report's category list so that exactly the
// six STRIDE titles are present in canonical order, each with a non-nil
// (possibly empty) risk list. Risks under unrecognized or duplicate titles
// are merged into the matching canonical category by fuzzy title match;
// risks that match no title are dropped.
func (r *AnalysisReport) NormalizeStride() {
	merged := make(map[string][]Risk, len(StrideTitles))
	desc := make(map[string]string, len(StrideTitles))
	for _, c := range r.StrideCategories {
		title, ok := matchStrideTitle(c.Title)
		if !ok {
			continue
		}
		merged[title] = append(merged[title], c.Risks...)
		if desc[title] == "" && c.Description != "" {
			desc[title] = c.Description
		}
	}

	out := make([]StrideCategory, 0, len(StrideTitles))
	for _, title := range StrideTitles {
		d := desc[title]
		if d == "" {
			d = strideDescriptions[title]
		}
		risks := merged[title]
		if risks == nil {
			risks = []Risk{}
		}
		out = append(out, StrideCategory{Title: title, Description: d, Risks: risks})
	}
	r.StrideCategories = out
}

// matchStrideTitle maps a model-produced title onto a canonical one.
// Tolerates case differences and extra wording like "Spoofing Identity".
func matchStrideTitle(title string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return "", false
	}
	for _, canonical := range StrideTitles {
		c := strings.ToLower(canonical)
		if t == c || strings.Contains(t, c) || strings.Contains(c, t) {
			return canonical, true
		}
	}
	return "", false
}

// EnsureTimestamp sets the timestamp if the model left it empty.
func (r *AnalysisReport) EnsureTimestamp() {
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
}

// Result is the outcome of recovery parsing: either a structured report or
// the raw text together with the reason it could not be structured. Degraded
// results are valid terminal values, never errors, so every downstream stage
// has something structurally consistent to aggregate or display.
type Result struct {
	Report    *AnalysisReport `json:"report,omitempty"`
	Raw       string          `json:"raw,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// OK reports whether recovery produced a structured report.
func (r Result) OK() bool {
	return r.Report != nil
}

// Degraded builds a degraded Result carrying the raw text, the failure
// reason, and a timestamp.
func Degraded(raw, reason string) Result {
	return Result{
		Raw:       raw,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
