// Package sources holds the trusted publication registry used to bias
// search queries and label result provenance.
package sources

import (
	"math/rand/v2"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tier ranks how much a publication is trusted. Lower is better.
type Tier int

const (
	Tier1 Tier = 1 // wire services and major financial press
	Tier2 Tier = 2 // crypto trade press
	Tier3 Tier = 3 // official blogs, regulators, aggregators
)

// Source is one trusted publication.
type Source struct {
	Domain string `yaml:"domain" json:"domain"`
	Name   string `yaml:"name" json:"name"`
	Tier   Tier   `yaml:"tier" json:"tier"`
}

// defaultSources is the built-in registry.
var defaultSources = []Source{
	{Domain: "reuters.com", Name: "Reuters", Tier: Tier1},
	{Domain: "bloomberg.com", Name: "Bloomberg", Tier: Tier1},
	{Domain: "ft.com", Name: "Financial Times", Tier: Tier1},
	{Domain: "wsj.com", Name: "The Wall Street Journal", Tier: Tier1},
	{Domain: "cnbc.com", Name: "CNBC", Tier: Tier1},
	{Domain: "forbes.com", Name: "Forbes", Tier: Tier1},
	{Domain: "fortune.com", Name: "Fortune", Tier: Tier1},
	{Domain: "techcrunch.com", Name: "TechCrunch", Tier: Tier1},
	{Domain: "axios.com", Name: "Axios", Tier: Tier1},
	{Domain: "businessinsider.com", Name: "Business Insider", Tier: Tier1},
	{Domain: "coindesk.com", Name: "CoinDesk", Tier: Tier2},
	{Domain: "theblock.co", Name: "The Block", Tier: Tier2},
	{Domain: "decrypt.co", Name: "Decrypt", Tier: Tier2},
	{Domain: "cointelegraph.com", Name: "Cointelegraph", Tier: Tier2},
	{Domain: "blockworks.co", Name: "Blockworks", Tier: Tier2},
	{Domain: "dlnews.com", Name: "DL News", Tier: Tier2},
	{Domain: "thedefiant.io", Name: "The Defiant", Tier: Tier2},
	{Domain: "ledgerinsights.com", Name: "Ledger Insights", Tier: Tier2},
	{Domain: "paymentsdive.com", Name: "Payments Dive", Tier: Tier2},
	{Domain: "finextra.com", Name: "Finextra", Tier: Tier2},
	{Domain: "pymnts.com", Name: "PYMNTS", Tier: Tier2},
	{Domain: "fintechfutures.com", Name: "FinTech Futures", Tier: Tier2},
	{Domain: "americanbanker.com", Name: "American Banker", Tier: Tier2},
	{Domain: "businesswire.com", Name: "Business Wire", Tier: Tier3},
	{Domain: "prnewswire.com", Name: "PR Newswire", Tier: Tier3},
	{Domain: "globenewswire.com", Name: "GlobeNewswire", Tier: Tier3},
	{Domain: "federalreserve.gov", Name: "Federal Reserve", Tier: Tier3},
	{Domain: "bis.org", Name: "Bank for International Settlements", Tier: Tier3},
	{Domain: "ecb.europa.eu", Name: "European Central Bank", Tier: Tier3},
	{Domain: "sec.gov", Name: "SEC", Tier: Tier3},
}

// Registry is an immutable set of trusted sources. The zero value is empty;
// use Default or Load.
type Registry struct {
	sources []Source
	byHost  map[string]Source
}

// New builds a registry from sources. Later entries win on duplicate
// domains.
func New(srcs []Source) *Registry {
	r := &Registry{byHost: make(map[string]Source, len(srcs))}
	for _, s := range srcs {
		d := normalizeDomain(s.Domain)
		if d == "" {
			continue
		}
		s.Domain = d
		if s.Tier == 0 {
			s.Tier = Tier3
		}
		if _, dup := r.byHost[d]; !dup {
			r.sources = append(r.sources, s)
		} else {
			for i := range r.sources {
				if r.sources[i].Domain == d {
					r.sources[i] = s
				}
			}
		}
		r.byHost[d] = s
	}
	return r
}

// Default returns the built-in registry.
func Default() *Registry {
	return New(defaultSources)
}

type registryFile struct {
	Sources []Source `yaml:"sources"`
	Replace bool     `yaml:"replace"`
}

// Load reads a YAML override file. Entries are merged over the built-in
// registry unless the file sets `replace: true`. An empty path returns
// Default.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read %s", path)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "sources: parse %s", path)
	}
	if f.Replace {
		return New(f.Sources), nil
	}
	merged := append(append([]Source(nil), defaultSources...), f.Sources...)
	return New(merged), nil
}

// Sources returns a copy of all registered sources.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// Lookup finds the source for a host, by exact match or by the host being
// a subdomain of a registered domain. The longest registered suffix wins.
func (r *Registry) Lookup(host string) (Source, bool) {
	host = normalizeDomain(host)
	if host == "" || r == nil {
		return Source{}, false
	}
	for d := host; d != ""; {
		if s, ok := r.byHost[d]; ok {
			return s, true
		}
		_, parent, found := strings.Cut(d, ".")
		if !found {
			break
		}
		d = parent
	}
	return Source{}, false
}

// LookupURL is Lookup on the host of a URL.
func (r *Registry) LookupURL(rawURL string) (Source, bool) {
	return r.Lookup(HostOf(rawURL))
}

// IsTrusted reports whether the URL belongs to a registered source.
func (r *Registry) IsTrusted(rawURL string) bool {
	_, ok := r.LookupURL(rawURL)
	return ok
}

// TierOf returns the tier of a URL, or 0 when it is not trusted.
func (r *Registry) TierOf(rawURL string) Tier {
	s, ok := r.LookupURL(rawURL)
	if !ok {
		return 0
	}
	return s.Tier
}

// Config is the runtime view of the registry for one call: domains the
// operator has excluded from biased searches.
type Config struct {
	ExcludedDomains []string
}

func (c Config) excluded(domain string) bool {
	for _, d := range c.ExcludedDomains {
		if normalizeDomain(d) == domain {
			return true
		}
	}
	return false
}

// Active returns the sources not excluded by cfg, best tier first.
func (r *Registry) Active(cfg Config) []Source {
	out := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		if cfg.excluded(s.Domain) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

// Sample picks up to n active sources at random using rng, returned best
// tier first.
func (r *Registry) Sample(cfg Config, n int, rng *rand.Rand) []Source {
	active := r.Active(cfg)
	if n <= 0 || len(active) == 0 {
		return nil
	}
	if n >= len(active) {
		return active
	}
	shuffled := append([]Source(nil), active...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	picked := shuffled[:n]
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Tier < picked[j].Tier })
	return picked
}

// HostOf returns the lowercased host of a URL without a leading "www.".
// Bare hosts without a scheme are accepted.
func HostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return normalizeDomain(u.Hostname())
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}
