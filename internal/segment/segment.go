// Package segment splits raw architecture-description text into
// semantically-typed units for per-unit analysis. The structural pass
// classifies blank-line-delimited paragraphs by vocabulary heuristics; when
// it cannot produce anything usable it falls back to generic sliding-window
// splitting, so splitting never fails.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/model"
)

// Options tunes segmentation. Zero values fall back to defaults.
type Options struct {
	// ChunkSize and ChunkOverlap configure the sliding-window fallback.
	ChunkSize    int
	ChunkOverlap int

	// MinChars is the minimum trimmed length for a structural segment;
	// shorter segments are discarded. Default 10.
	MinChars int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 4000
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = 0
	}
	if o.MinChars <= 0 {
		o.MinChars = 10
	}
	return o
}

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)

	// Primary classification vocabularies.
	componentIndicator = regexp.MustCompile(`(?i)\b(component|service|database|server|module|api|gateway|queue|cache|frontend|backend|microservice|application|app|storage|bucket|function|lambda|container)\s*[:=]`)
	connectionIndicator = regexp.MustCompile(`(?i)\b(connects?\s+to|data\s*flow|sends?\s+.*\bto\b|receives?\s+.*\bfrom\b|talks?\s+to|calls?|communicates?\s+with|flows?\s+to)\b|-->|<--|->|<-|→|←|⇒|⇐`)
	metadataIndicator  = regexp.MustCompile(`(?i)^\s*(title|author|version|date|environment|scope|owner|team|description|name)\s*[:=]`)

	// Secondary heuristics for unclassified paragraphs.
	arrowToken   = regexp.MustCompile(`-->|<--|->|<-|→|←|⇒|⇐`)
	keyValueLine = regexp.MustCompile(`^\s*[\w .-]{1,40}\s*[:=]\s*\S`)

	// Source/target extraction for connection grouping.
	fromToPattern      = regexp.MustCompile(`(?i)\bfrom\s+([\w.-]+).*?\bto\s+([\w.-]+)`)
	sourceTargetPattern = regexp.MustCompile(`(?i)\bsource\s*=\s*([\w.-]+).*?\btarget\s*=\s*([\w.-]+)`)
	arrowPairPattern   = regexp.MustCompile(`([\w.-]+)\s*(?:-->|->|→|⇒)\s*([\w.-]+)`)
)

// Split segments text into typed units. It never fails: any internal error
// or an unusable structural result falls back to sliding-window splitting,
// and an empty input still yields one segment holding the whole input.
func Split(text string, opts Options) []model.Segment {
	opts = opts.withDefaults()

	segs := structural(text, opts)
	if len(segs) == 0 {
		zap.L().Debug("segment: structural pass unusable, using sliding window",
			zap.Int("input_len", len(text)),
		)
		for _, chunk := range Window(text, opts.ChunkSize, opts.ChunkOverlap) {
			segs = append(segs, model.Segment{Kind: model.SegmentComponent, Content: chunk})
		}
	}
	if len(segs) == 0 {
		segs = []model.Segment{{Kind: model.SegmentComponent, Content: text}}
	}
	return segs
}

// structural runs the paragraph-classification pass. A panic anywhere in the
// heuristics is absorbed and reported as an empty (unusable) result.
func structural(text string, opts Options) (segs []model.Segment) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("segment: structural pass failed", zap.Any("panic", r))
			segs = nil
		}
	}()

	var components, metadata []model.Segment
	var connections []string

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if len(para) < opts.MinChars {
			continue
		}

		switch classify(para) {
		case model.SegmentComponent:
			components = append(components, model.Segment{Kind: model.SegmentComponent, Content: para})
		case model.SegmentMetadata:
			metadata = append(metadata, model.Segment{Kind: model.SegmentMetadata, Content: para})
		case model.SegmentConnectionGroup:
			connections = append(connections, para)
		}
	}

	// Components first, then metadata, then grouped connections.
	segs = append(segs, components...)
	segs = append(segs, metadata...)
	segs = append(segs, groupConnections(connections)...)
	return segs
}

func classify(para string) model.SegmentKind {
	switch {
	case componentIndicator.MatchString(para):
		return model.SegmentComponent
	case connectionIndicator.MatchString(para):
		return model.SegmentConnectionGroup
	case metadataIndicator.MatchString(para):
		return model.SegmentMetadata
	}

	// Secondary heuristics.
	if arrowToken.MatchString(para) {
		return model.SegmentConnectionGroup
	}
	if len(para) < 120 && isKeyValueShaped(para) {
		return model.SegmentMetadata
	}
	return model.SegmentComponent
}

// isKeyValueShaped reports whether every line of a short paragraph looks
// like "key: value" or "key = value".
func isKeyValueShaped(para string) bool {
	lines := strings.Split(para, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !keyValueLine.MatchString(line) {
			return false
		}
	}
	return true
}

// groupConnections merges connection paragraphs that describe the same
// (source, target) pair into one segment by concatenation. Paragraphs with
// no extractable pair become singleton groups.
func groupConnections(paras []string) []model.Segment {
	grouped := make(map[string][]string)
	var order []string

	for i, para := range paras {
		key, ok := connectionKey(para)
		if !ok {
			key = fmt.Sprintf("__singleton_%d", i)
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], para)
	}

	segs := make([]model.Segment, 0, len(order))
	for _, key := range order {
		segs = append(segs, model.Segment{
			Kind:    model.SegmentConnectionGroup,
			Content: strings.Join(grouped[key], "\n"),
		})
	}
	return segs
}

func connectionKey(para string) (string, bool) {
	for _, re := range []*regexp.Regexp{fromToPattern, sourceTargetPattern, arrowPairPattern} {
		if m := re.FindStringSubmatch(para); m != nil {
			return strings.ToLower(m[1]) + "→" + strings.ToLower(m[2]), true
		}
	}
	return "", false
}
