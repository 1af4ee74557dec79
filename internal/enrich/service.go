// Package enrich composes searches, page fetches, model calls and the
// extractors into the directory's business operations. Every operation
// degrades to a smaller result rather than failing: search and model
// errors are logged and replaced by heuristic fallbacks.
package enrich

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/stablecoin-intel/internal/llm"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/sources"
	"github.com/sells-group/stablecoin-intel/internal/structure"
	"github.com/sells-group/stablecoin-intel/pkg/newsapi"
)

// Completer returns one text reply for a prompt. *llm.Rotator satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ExclusionFunc returns the current source exclusions. It is called once
// per operation.
type ExclusionFunc func(ctx context.Context) sources.Config

// Config tunes query construction and batch pacing.
type Config struct {
	// SiteSample is how many registry sources go into a site: clause.
	SiteSample int
	// NewsWindow is the recency window for news searches, e.g. "w1".
	NewsWindow string
	// NewsAPIDays is how far back the news API is queried.
	NewsAPIDays int
	// BatchGroupSize is the number of companies per funding batch group.
	BatchGroupSize int
	// BatchInterval is the minimum pause between funding batch groups.
	BatchInterval time.Duration
	// MaxTokens caps each model reply.
	MaxTokens int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		SiteSample:     6,
		NewsWindow:     "w1",
		NewsAPIDays:    7,
		BatchGroupSize: 5,
		BatchInterval:  2 * time.Second,
		MaxTokens:      2048,
	}
}

// Service runs the enrichment operations. It is safe for concurrent use.
type Service struct {
	search     search.Searcher
	fetch      scrape.Fetcher
	ai         Completer
	news       newsapi.Client
	reg        *sources.Registry
	exclusions ExclusionFunc
	cfg        Config
	now        func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithNewsAPI adds a news API client to industry news scans.
func WithNewsAPI(c newsapi.Client) Option {
	return func(s *Service) { s.news = c }
}

// WithExclusions sets where source exclusions are read from.
func WithExclusions(fn ExclusionFunc) Option {
	return func(s *Service) { s.exclusions = fn }
}

// WithConfig overrides DefaultConfig. Zero fields keep their defaults,
// except BatchInterval where zero disables pacing.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		def := DefaultConfig()
		if cfg.SiteSample <= 0 {
			cfg.SiteSample = def.SiteSample
		}
		if cfg.NewsWindow == "" {
			cfg.NewsWindow = def.NewsWindow
		}
		if cfg.NewsAPIDays <= 0 {
			cfg.NewsAPIDays = def.NewsAPIDays
		}
		if cfg.BatchGroupSize <= 0 {
			cfg.BatchGroupSize = def.BatchGroupSize
		}
		if cfg.BatchInterval < 0 {
			cfg.BatchInterval = 0
		}
		if cfg.MaxTokens <= 0 {
			cfg.MaxTokens = def.MaxTokens
		}
		s.cfg = cfg
	}
}

// WithRand seeds source sampling, for reproducible queries.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. A nil registry means sources.Default().
func New(searcher search.Searcher, fetcher scrape.Fetcher, ai Completer, reg *sources.Registry, opts ...Option) *Service {
	if reg == nil {
		reg = sources.Default()
	}
	s := &Service{
		search:     searcher,
		fetch:      fetcher,
		ai:         ai,
		reg:        reg,
		cfg:        DefaultConfig(),
		exclusions: func(context.Context) sources.Config { return sources.Config{} },
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the source registry used for biasing and labels.
func (s *Service) Registry() *sources.Registry { return s.reg }

// targeted appends a site: clause over a fresh registry sample to base.
func (s *Service) targeted(base string, cfg sources.Config) string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.reg.TargetedQuery(base, cfg, s.cfg.SiteSample, s.rng)
}

// searchAll fans queries out and merges the answers. A total search
// failure is logged and yields an empty result.
func (s *Service) searchAll(ctx context.Context, op string, queries []string, opts search.Options) search.Combined {
	if s.search == nil {
		return search.Combined{}
	}
	combined, err := search.FanOut(ctx, s.search, s.reg, queries, opts)
	if err != nil {
		zap.L().Warn("enrich: search failed, continuing without results",
			zap.String("op", op),
			zap.Int("queries", len(queries)),
			zap.Error(err),
		)
		return search.Combined{}
	}
	return combined
}

// complete asks the model and reports whether a usable reply came back.
// Model failures are logged, never returned.
func (s *Service) complete(ctx context.Context, task, prompt string) (string, bool) {
	if s.ai == nil {
		return "", false
	}
	text, err := s.ai.Complete(ctx, llm.Request{
		System:    structure.SystemPrompt,
		Prompt:    prompt,
		MaxTokens: s.cfg.MaxTokens,
		Task:      task,
	})
	if err != nil {
		zap.L().Warn("enrich: model unavailable, using fallback extraction",
			zap.String("task", task),
			zap.Error(err),
		)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// promptContext renders results plus any backend summaries.
func promptContext(c search.Combined) string {
	ctx := structure.SearchContext(c.Results)
	if sum := c.Summary(); sum != "" {
		ctx = "Summary:\n" + sum + "\n\n" + ctx
	}
	return ctx
}

// snippetText joins titles and snippets of the first n results.
func snippetText(results []model.SearchResult, n int) string {
	var sb strings.Builder
	for i, r := range results {
		if i == n {
			break
		}
		sb.WriteString(r.Title)
		sb.WriteString(". ")
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}
	return sb.String()
}

// pacer returns the limiter between batch groups.
func (s *Service) pacer() *rate.Limiter {
	if s.cfg.BatchInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.cfg.BatchInterval), 1)
}
