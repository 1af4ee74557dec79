package structure

import (
	"fmt"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

const (
	templateSnippets = 3
	maxTemplateLen   = 500
)

// TemplateDescription builds a description from the first few search
// snippets when the model is unavailable or its reply cannot be parsed.
func TemplateDescription(companyName string, results []model.SearchResult) string {
	var parts []string
	seen := make(map[string]bool)
	for _, r := range results {
		if len(parts) == templateSnippets {
			break
		}
		s := strings.Join(strings.Fields(r.Snippet), " ")
		s = strings.TrimSuffix(s, "...")
		s = strings.TrimSpace(strings.TrimSuffix(s, "…"))
		if s == "" || seen[strings.ToLower(s)] || executiveRe.MatchString(s) {
			continue
		}
		seen[strings.ToLower(s)] = true
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s is a company operating in the stablecoin and digital asset ecosystem.", companyName)
	}
	out := strings.Join(parts, " ")
	if len(out) > maxTemplateLen {
		out = Truncate(out, maxTemplateLen)
		out = strings.TrimSuffix(out, "\n[truncated]")
		if i := strings.LastIndexByte(out, ' '); i > 0 {
			out = out[:i]
		}
		out += "..."
	}
	return out
}
