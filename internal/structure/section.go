// Package structure builds fixed-format prompts for the LLM and parses the
// blocks it returns back into model values.
package structure

import (
	"regexp"
	"strings"
	"sync"
)

// Separator divides positional sections in a block.
const Separator = "---"

var separatorRe = regexp.MustCompile(`(?m)^\s*-{3,}\s*$|\s+-{3}\s+`)

// Sections holds the body of each labelled section found in a block.
type Sections map[string]string

// Get returns the trimmed body for label ("" when absent).
func (s Sections) Get(label string) string {
	return strings.TrimSpace(s[strings.ToUpper(label)])
}

// Has reports whether label has a non-empty body.
func (s Sections) Has(label string) bool {
	return s.Get(label) != ""
}

// Extractor finds one section's body in a block.
type Extractor func(block string) (string, bool)

// Labelled finds the section introduced by "LABEL:" at the start of a line
// (markdown bold or heading decoration allowed). The body runs to the next
// known label or separator line.
func Labelled(label string, known []string) Extractor {
	start := labelRe(label)
	var others []*regexp.Regexp
	for _, k := range known {
		if !strings.EqualFold(k, label) {
			others = append(others, labelRe(k))
		}
	}
	return func(block string) (string, bool) {
		loc := start.FindStringIndex(block)
		if loc == nil {
			return "", false
		}
		body := block[loc[1]:]
		end := len(body)
		for _, re := range others {
			if l := re.FindStringIndex(body); l != nil && l[0] < end {
				end = l[0]
			}
		}
		if l := separatorRe.FindStringIndex(body); l != nil && l[0] < end {
			end = l[0]
		}
		return strings.TrimSpace(body[:end]), true
	}
}

var labelCache sync.Map

func labelRe(label string) *regexp.Regexp {
	if re, ok := labelCache.Load(label); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*\*|__)?` + regexp.QuoteMeta(label) + `(?:\*\*|__)?[ \t]*:(?:\*\*|__)?[ \t]*`)
	labelCache.Store(label, re)
	return re
}

// Positional takes the idx-th chunk of a block split on separator lines.
func Positional(idx int) Extractor {
	return func(block string) (string, bool) {
		chunks := SplitBlocks(block)
		if idx >= len(chunks) {
			return "", false
		}
		return chunks[idx], true
	}
}

// FirstOf tries extractors in order and returns the first hit.
func FirstOf(exs ...Extractor) Extractor {
	return func(block string) (string, bool) {
		for _, ex := range exs {
			if body, ok := ex(block); ok {
				return body, true
			}
		}
		return "", false
	}
}

// ParseSections extracts every label from block. Each label is found by
// its anchor first, then by its position in labels order when the chunk at
// that position carries no other label.
func ParseSections(block string, labels ...string) Sections {
	out := make(Sections, len(labels))
	for i, l := range labels {
		ex := FirstOf(Labelled(l, labels), unlabelledPositional(i, labels))
		if body, ok := ex(block); ok {
			out[strings.ToUpper(l)] = body
		}
	}
	return out
}

func unlabelledPositional(idx int, known []string) Extractor {
	pos := Positional(idx)
	return func(block string) (string, bool) {
		chunk, ok := pos(block)
		if !ok {
			return "", false
		}
		for _, k := range known {
			if loc := labelRe(k).FindStringIndex(chunk); loc != nil && loc[0] == 0 {
				return "", false
			}
		}
		return stripLeadingLabel(chunk), true
	}
}

var anyLabelRe = regexp.MustCompile(`^(?:\*\*)?[A-Z][A-Z _]{1,30}(?:\*\*)?:\s*`)

func stripLeadingLabel(s string) string {
	return strings.TrimSpace(anyLabelRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// SplitBlocks splits text on separator lines, dropping empty chunks.
func SplitBlocks(text string) []string {
	var out []string
	for _, c := range separatorRe.Split(text, -1) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// FieldValue reads a single-line "LABEL: value" field from a block.
func FieldValue(block, label string) string {
	loc := labelRe(label).FindStringIndex(block)
	if loc == nil {
		return ""
	}
	rest := block[loc[1]:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return cleanValue(rest)
}

var emptyValues = map[string]bool{
	"": true, "n/a": true, "na": true, "none": true, "unknown": true,
	"not available": true, "not specified": true, "not disclosed": true,
	"undisclosed": true, "-": true, "null": true,
}

// cleanValue strips markdown emphasis and normalizes placeholder values
// the model emits when it does not know something.
func cleanValue(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("**", "", "__", "", "`", "").Replace(s))
	s = strings.Trim(s, `"' `)
	if emptyValues[strings.ToLower(strings.TrimRight(s, "."))] {
		return ""
	}
	return s
}
