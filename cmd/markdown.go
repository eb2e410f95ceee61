package main

import (
	"fmt"
	"strings"

	"github.com/stridescan/stridescan/internal/model"
)

// renderMarkdown formats an analysis result for terminal display. Degraded
// results keep the raw model output so nothing is silently lost.
func renderMarkdown(result *model.AnalyzeResult) string {
	var b strings.Builder

	b.WriteString("# Security Analysis Report\n\n")

	if result.Report == nil {
		b.WriteString("The analysis could not be fully structured.\n\n")
		if result.Note != "" {
			fmt.Fprintf(&b, "**Note:** %s\n\n", result.Note)
		}
		if result.Raw != "" {
			b.WriteString("## Raw Output\n\n```\n")
			b.WriteString(result.Raw)
			b.WriteString("\n```\n")
		}
		return b.String()
	}

	r := result.Report

	if r.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(r.Summary)
		b.WriteString("\n\n")
	}

	if len(r.Components) > 0 {
		b.WriteString("## Components\n\n")
		for _, c := range r.Components {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(r.DataFlows) > 0 {
		b.WriteString("## Data Flows\n\n")
		for _, f := range r.DataFlows {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## STRIDE Threats\n\n")
	for _, cat := range r.StrideCategories {
		fmt.Fprintf(&b, "### %s\n\n", cat.Title)
		if cat.Description != "" {
			b.WriteString(cat.Description)
			b.WriteString("\n\n")
		}
		if len(cat.Risks) == 0 {
			b.WriteString("_No risks identified._\n\n")
			continue
		}
		for _, risk := range cat.Risks {
			fmt.Fprintf(&b, "- **[%s]** %s\n", risk.Severity, risk.Description)
			if risk.Remediation != "" {
				fmt.Fprintf(&b, "  - Remediation: %s\n", risk.Remediation)
			}
			if risk.TechnicalNotes != "" {
				fmt.Fprintf(&b, "  - Notes: %s\n", risk.TechnicalNotes)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", rec.Title, rec.Priority, rec.Description)
		}
		b.WriteString("\n")
	}

	if result.Note != "" {
		fmt.Fprintf(&b, "> %s\n\n", result.Note)
	}
	if r.Timestamp != "" {
		fmt.Fprintf(&b, "_Generated %s, %d/%d segments analyzed._\n",
			r.Timestamp, result.ProcessedChunks, result.TotalChunks)
	}

	return b.String()
}
