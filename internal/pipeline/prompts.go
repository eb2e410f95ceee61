package pipeline

import (
	"fmt"
	"strings"

	"github.com/stridescan/stridescan/internal/model"
)

// reportSchema is the JSON shape every analysis and consolidation response
// must follow. It is embedded verbatim in both system prompts.
const reportSchema = `{
  "summary": "<one paragraph overview>",
  "components": ["<component name>"],
  "dataFlows": ["<source -> target: description>"],
  "keywords": ["<architecture keyword>"],
  "strideCategories": [
    {
      "title": "<one of: Spoofing, Tampering, Repudiation, Information Disclosure, Denial of Service, Elevation of Privilege>",
      "description": "<what this threat class means for this system>",
      "risks": [
        {
          "description": "<the specific risk>",
          "severity": "<High | Medium | Low>",
          "remediation": "<how to address it>",
          "technicalNotes": "<optional implementation detail>"
        }
      ]
    }
  ],
  "recommendations": [
    {"title": "<short title>", "description": "<what to do>", "priority": "<High | Medium | Low>"}
  ],
  "timestamp": "<ISO-8601>"
}`

const analysisSystemPrompt = `You are a security architect performing STRIDE threat analysis on one fragment of a larger architecture description.

Analyze the fragment and respond with a single JSON object exactly matching this schema:

` + reportSchema + `

Rules:
- Include ALL six STRIDE categories in strideCategories, in the order listed, even when a category has no risks (use an empty risks array).
- Respond with raw JSON only: no markdown fences, no commentary, no trailing text.
- Only report components, flows, and risks evidenced by the fragment.`

const consolidationSystemPrompt = `You are a security architect consolidating multiple partial STRIDE analysis reports of one system into a single report.

Merge the reports into one JSON object exactly matching this schema:

` + reportSchema + `

Rules:
- Deduplicate overlapping components, data flows, keywords, risks, and recommendations.
- Include ALL six STRIDE categories in strideCategories, in the order listed, even when a category has no risks (use an empty risks array).
- Respond with raw JSON only: no markdown fences, no commentary, no trailing text.`

var segmentKindLabels = map[model.SegmentKind]string{
	model.SegmentComponent:       "component description",
	model.SegmentMetadata:        "system metadata",
	model.SegmentConnectionGroup: "connection / data-flow description",
}

// analysisUserPrompt frames one segment with its position so the model can
// weight fragment-local findings appropriately.
func analysisUserPrompt(seg model.Segment, position, total int) string {
	return fmt.Sprintf("Fragment %d of %d (%s):\n\n%s",
		position, total, segmentKindLabels[seg.Kind], seg.Content)
}

// consolidationUserPrompt lists the serialized partial reports for one
// reduction call.
func consolidationUserPrompt(serialized []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Consolidate these %d partial reports:\n", len(serialized))
	for i, s := range serialized {
		fmt.Fprintf(&b, "\n--- Report %d ---\n%s\n", i+1, s)
	}
	return b.String()
}
