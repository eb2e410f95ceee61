// Package repair turns near-JSON text returned by a generative model into a
// well-formed analysis report, or degrades gracefully. It is the pipeline's
// defense against contract violations by the remote service: a pure function
// of text in, record out, exercised after every analysis call.
package repair

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/stridescan/stridescan/internal/model"
)

// Recover parses rawText into an AnalysisReport, escalating through repair
// stages and stopping at the first success. It never fails: if every stage
// is exhausted it returns a degraded result carrying the raw text and the
// failure reason.
func Recover(rawText string) model.Result {
	// Stage 1: strict parse.
	if report, ok := tryParse(rawText); ok {
		return model.Result{Report: report}
	}

	// Stage 2: formatting cleanup.
	cleaned := cleanup(rawText)
	if report, ok := tryParse(cleaned); ok {
		zap.L().Debug("repair: recovered after cleanup")
		return model.Result{Report: report}
	}

	// Stage 3: structural surgery on the cleaned text.
	repaired := balance(escapeInteriorQuotes(cleaned))
	if report, ok := tryParse(repaired); ok {
		zap.L().Debug("repair: recovered after structural repair")
		return model.Result{Report: report}
	}

	zap.L().Warn("repair: could not recover structured report",
		zap.Int("raw_len", len(rawText)),
	)
	return model.Degraded(rawText,
		"response could not be parsed as a structured report after all recovery attempts")
}

// tryParse unmarshals candidate JSON into a report and normalizes it.
// Only a JSON object with at least one recognized report field counts as a
// success; bare scalars and arrays do not.
func tryParse(text string) (*model.AnalysisReport, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}

	var report model.AnalysisReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, false
	}
	if report.Summary == "" && report.Components == nil && report.DataFlows == nil &&
		report.Keywords == nil && report.StrideCategories == nil && report.Recommendations == nil {
		return nil, false
	}

	report.NormalizeStride()
	report.EnsureTimestamp()
	return &report, true
}

var (
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey    = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	lineComment    = regexp.MustCompile(`(?m)^\s*//[^\n]*$`)
	blockComment   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	danglingQuote  = regexp.MustCompile(`"([^"\n]*)$`)
	tripleSegments = regexp.MustCompile(`([:,\[{]\s*)"((?:[^"\\]|\\.)*)"([^"{}\[\]:,\\]*)"((?:[^"\\]|\\.)*)"(\s*[,}\]])`)
)

// cleanup applies formatting-noise repairs: markdown fences, surrounding
// prose, comments, trailing commas, unquoted keys, single-quoted strings,
// collapsed whitespace, and a dangling unterminated quote at end-of-string.
func cleanup(text string) string {
	text = stripFences(text)

	// Keep only the outermost object if prose surrounds it.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		} else {
			text = text[start:]
		}
	}

	text = blockComment.ReplaceAllString(text, "")
	text = lineComment.ReplaceAllString(text, "")
	text = trailingComma.ReplaceAllString(text, "$1")
	text = unquotedKey.ReplaceAllString(text, `$1"$2":`)
	text = replaceSingleQuotes(text)

	// Collapse newlines so multi-line string values survive re-parsing.
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.Join(strings.Fields(text), " ")

	// Close a value whose quote never terminated.
	if strings.Count(text, `"`)%2 == 1 {
		text = danglingQuote.ReplaceAllString(text, `"$1"`)
	}

	return strings.TrimSpace(text)
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}

// replaceSingleQuotes converts single-quoted strings to double-quoted ones
// without touching apostrophes inside already double-quoted values. An
// escape flag tracks backslashes so that \\" reads as an escaped backslash
// followed by a real closing quote.
func replaceSingleQuotes(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inDouble := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\':
			escaped = inDouble
			b.WriteByte(c)
		case c == '"':
			inDouble = !inDouble
			b.WriteByte(c)
		case c == '\'' && !inDouble:
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// escapeInteriorQuotes collapses the pattern of three consecutive quoted
// segments in value position into one string with the interior quotes
// escaped, which is how an unescaped quote inside a value presents after
// cleanup. Both ends are anchored to JSON delimiters so a key/value boundary
// is never consumed. The segment classes treat a backslash-quote pair as one
// unit, so an already-escaped quote is never an anchor: each pass escapes at
// least one bare interior quote and a pass over fully-escaped text matches
// nothing, which bounds the loop.
func escapeInteriorQuotes(text string) string {
	for {
		next := tripleSegments.ReplaceAllString(text, `$1"$2\"$3\"$4"$5`)
		if next == text {
			return next
		}
		text = next
	}
}

// balance appends the deficit of closing braces and brackets, matching the
// order in which the unclosed openers appeared.
func balance(text string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = inString
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}':
			if n := len(stack); n > 0 && stack[n-1] == '{' {
				stack = stack[:n-1]
			}
		case c == ']':
			if n := len(stack); n > 0 && stack[n-1] == '[' {
				stack = stack[:n-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(text)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
