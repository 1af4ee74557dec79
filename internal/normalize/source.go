package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/stablecoin-intel/internal/sources"
)

// UnknownSource labels results whose host yields nothing readable.
const UnknownSource = "Web"

// genericHostTokens are hostname labels that never name a publication.
var genericHostTokens = map[string]bool{
	"www": true, "www2": true, "blog": true, "blogs": true, "news": true,
	"com": true, "org": true, "net": true, "io": true, "co": true,
	"amp": true, "en": true, "m": true, "mobile": true, "web": true,
	"info": true, "app": true, "edu": true, "gov": true, "press": true,
}

// ResolveSourceName turns a result URL into a human label. The registry is
// consulted for the URL host, then for displayLink. Otherwise the label is
// derived from the first meaningful hostname label, never the raw domain.
func ResolveSourceName(reg *sources.Registry, rawURL, displayLink string) string {
	if s, ok := reg.LookupURL(rawURL); ok {
		return s.Name
	}
	if s, ok := reg.LookupURL(displayLink); ok {
		return s.Name
	}

	host := sources.HostOf(rawURL)
	if host == "" {
		host = sources.HostOf(displayLink)
	}
	if label := humanizeHost(host); label != "" {
		return label
	}
	return UnknownSource
}

func humanizeHost(host string) string {
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	// The TLD never names anything.
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}
	for _, l := range labels {
		if len(l) <= 2 || genericHostTokens[l] {
			continue
		}
		l = strings.NewReplacer("-", " ", "_", " ").Replace(l)
		return cases.Title(language.English).String(l)
	}
	return ""
}
