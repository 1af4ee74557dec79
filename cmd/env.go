package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/config"
	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/llm"
	"github.com/sells-group/stablecoin-intel/internal/resilience"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/sources"
	"github.com/sells-group/stablecoin-intel/internal/store"
	"github.com/sells-group/stablecoin-intel/pkg/anthropic"
	"github.com/sells-group/stablecoin-intel/pkg/firecrawl"
	"github.com/sells-group/stablecoin-intel/pkg/gemini"
	"github.com/sells-group/stablecoin-intel/pkg/google"
	"github.com/sells-group/stablecoin-intel/pkg/jina"
	"github.com/sells-group/stablecoin-intel/pkg/newsapi"
	"github.com/sells-group/stablecoin-intel/pkg/openai"
	"github.com/sells-group/stablecoin-intel/pkg/serpapi"
)

// appEnv holds the store and the enrichment service shared by the
// research commands and the HTTP server.
type appEnv struct {
	Store   store.Store
	Service *enrich.Service
	Roster  *llm.Rotator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates cfg for mode, opens the store and builds the service.
// Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	svc, rot, err := buildService(ctx, cfg, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &appEnv{Store: st, Service: svc, Roster: rot}, nil
}

// buildService wires the search chain, fetch chain, model roster and news
// client into an enrich.Service. Source exclusions are read from st on
// every operation, so edits through the API apply without a restart.
func buildService(ctx context.Context, c *config.Config, st store.Store) (*enrich.Service, *llm.Rotator, error) {
	breakers := resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig())

	backends, err := buildSearchers(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	retry := resilience.DefaultRetryConfig()
	if c.Search.Retries >= 0 {
		retry.MaxAttempts = c.Search.Retries + 1
	}
	retry.OnRetry = resilience.RetryLogger("search", "query")
	chain := search.NewChain(backends, search.WithRetry(retry), search.WithBreakers(breakers))

	roster, err := buildRoster(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	rot := llm.NewRotator(roster...)

	reg, err := loadRegistry(c)
	if err != nil {
		return nil, nil, err
	}

	opts := []enrich.Option{
		enrich.WithConfig(enrich.Config{
			SiteSample:     c.Sources.SiteSample,
			NewsWindow:     c.Sources.NewsWindow,
			NewsAPIDays:    c.NewsAPI.Days,
			BatchGroupSize: c.Batch.GroupSize,
			BatchInterval:  time.Duration(c.Batch.IntervalSecs) * time.Second,
			MaxTokens:      c.LLM.MaxTokens,
		}),
	}
	if st != nil {
		opts = append(opts, enrich.WithExclusions(storeExclusions(st)))
	}
	if c.NewsAPI.Key != "" {
		opts = append(opts, enrich.WithNewsAPI(newsapi.NewClient(c.NewsAPI.Key, newsapi.WithBaseURL(c.NewsAPI.BaseURL))))
	}

	zap.L().Info("enrichment service ready",
		zap.String("search", chain.Name()),
		zap.Strings("roster", rot.Names()),
		zap.Int("sources", len(reg.Sources())),
		zap.Bool("newsapi", c.NewsAPI.Key != ""),
	)
	return enrich.New(chain, buildFetcher(c), rot, reg, opts...), rot, nil
}

// buildSearchers creates the configured backends in c.Search.Order,
// skipping names without credentials.
func buildSearchers(ctx context.Context, c *config.Config) ([]search.Searcher, error) {
	hc := &http.Client{Timeout: secs(c.Search.TimeoutSecs, 15)}

	var out []search.Searcher
	for _, name := range c.Search.Order {
		switch name {
		case "google":
			if c.Search.Google.Key == "" || c.Search.Google.CX == "" {
				continue
			}
			gc, err := google.NewClient(ctx, c.Search.Google.Key, c.Search.Google.CX)
			if err != nil {
				return nil, eris.Wrap(err, "init google search")
			}
			out = append(out, search.NewGoogle(gc))
		case "serpapi":
			if c.Search.SerpAPI.Key == "" {
				continue
			}
			out = append(out, search.NewSerpAPI(serpapi.NewClient(c.Search.SerpAPI.Key)))
		case "jina":
			if c.Search.Jina.Key == "" {
				continue
			}
			out = append(out, search.NewJina(newJina(c, hc)))
		case "perplexity":
			if c.Search.Perplexity.Key == "" {
				continue
			}
			out = append(out, search.NewPerplexity(newPerplexity(c, hc), c.Search.Perplexity.Model))
		default:
			zap.L().Warn("unknown search backend in search.order", zap.String("name", name))
		}
	}
	return out, nil
}

// buildFetcher chains the local fetcher with the hosted readers that have
// credentials.
func buildFetcher(c *config.Config) scrape.Fetcher {
	fetchers := []scrape.Fetcher{
		scrape.NewLocalFetcher(&http.Client{Timeout: secs(c.Fetch.TimeoutSecs, 20)}),
	}
	if c.Fetch.UseJina && c.Search.Jina.Key != "" {
		fetchers = append(fetchers, scrape.NewJinaFetcher(newJina(c, nil)))
	}
	if c.Fetch.Firecrawl.Key != "" {
		fc := firecrawl.NewClient(c.Fetch.Firecrawl.Key, firecrawl.WithBaseURL(c.Fetch.Firecrawl.BaseURL))
		fetchers = append(fetchers, scrape.NewFirecrawlFetcher(fc, c.Fetch.Firecrawl.WaitForMs))
	}
	return scrape.NewChain(scrape.NewPathMatcher(c.Fetch.ExcludePaths), fetchers...)
}

// buildRoster creates one provider per c.LLM.Roster entry that has a key.
func buildRoster(ctx context.Context, c *config.Config) ([]llm.Provider, error) {
	var roster []llm.Provider
	for _, name := range c.LLM.Roster {
		if c.ProviderKey(name) == "" {
			zap.L().Debug("llm provider has no key, skipping", zap.String("provider", name))
			continue
		}
		switch name {
		case "anthropic":
			roster = append(roster, llm.NewAnthropic(anthropic.NewClient(c.LLM.Anthropic.Key), c.LLM.Anthropic.Model))
		case "gemini":
			gc, err := gemini.NewClient(ctx, c.LLM.Gemini.Key)
			if err != nil {
				return nil, eris.Wrap(err, "init gemini")
			}
			roster = append(roster, llm.NewGemini(gc, c.LLM.Gemini.Model))
		case "openai":
			oc := openai.NewClient(c.LLM.OpenAI.Key,
				openai.WithBaseURL(c.LLM.OpenAI.BaseURL),
				openai.WithModel(c.LLM.OpenAI.Model),
			)
			roster = append(roster, llm.NewOpenAI(oc, "openai", c.LLM.OpenAI.Model))
		case "perplexity":
			roster = append(roster, llm.NewOpenAI(newPerplexity(c, nil), "perplexity", c.Search.Perplexity.Model))
		default:
			zap.L().Warn("unknown provider in llm.roster", zap.String("name", name))
		}
	}
	return roster, nil
}

// loadRegistry reads the source registry override, or the built-in list.
func loadRegistry(c *config.Config) (*sources.Registry, error) {
	if c.Sources.RegistryPath == "" {
		return sources.Default(), nil
	}
	reg, err := sources.Load(c.Sources.RegistryPath)
	if err != nil {
		return nil, eris.Wrap(err, "load source registry")
	}
	return reg, nil
}

// storeExclusions reads the excluded domains from st. A read failure
// disables exclusions for that operation.
func storeExclusions(st store.Store) enrich.ExclusionFunc {
	return func(ctx context.Context) sources.Config {
		sc, err := st.GetSourceConfig(ctx)
		if err != nil {
			zap.L().Warn("read source config failed, searching all sources", zap.Error(err))
			return sources.Config{}
		}
		return sources.Config{ExcludedDomains: sc.ExcludedDomains}
	}
}

func newJina(c *config.Config, hc *http.Client) jina.Client {
	opts := []jina.Option{jina.WithBaseURL(c.Search.Jina.BaseURL)}
	if c.Search.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(c.Search.Jina.SearchBaseURL))
	}
	if hc != nil {
		opts = append(opts, jina.WithHTTPClient(hc))
	}
	return jina.NewClient(c.Search.Jina.Key, opts...)
}

func newPerplexity(c *config.Config, hc *http.Client) openai.Client {
	opts := []openai.Option{
		openai.WithBaseURL(c.Search.Perplexity.BaseURL),
		openai.WithModel(c.Search.Perplexity.Model),
	}
	if hc != nil {
		opts = append(opts, openai.WithHTTPClient(hc))
	}
	return openai.NewClient(c.Search.Perplexity.Key, opts...)
}

func secs(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
