package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	NewsAPI NewsAPIConfig `yaml:"newsapi" mapstructure:"newsapi"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string          `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string          `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32           `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32           `yaml:"min_conns" mapstructure:"min_conns"`
	Firestore   FirestoreConfig `yaml:"firestore" mapstructure:"firestore"`
}

// FirestoreConfig selects the Firebase project for the firestore driver.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// SearchConfig configures the web search backends. Order lists backend
// names tried first to last; backends without credentials are skipped.
type SearchConfig struct {
	Order       []string         `yaml:"order" mapstructure:"order"`
	TimeoutSecs int              `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int              `yaml:"retries" mapstructure:"retries"`
	Google      GoogleConfig     `yaml:"google" mapstructure:"google"`
	SerpAPI     SerpAPIConfig    `yaml:"serpapi" mapstructure:"serpapi"`
	Jina        JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity  PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
}

// GoogleConfig holds Programmable Search credentials.
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
	CX  string `yaml:"cx" mapstructure:"cx"`
}

// SerpAPIConfig holds SerpAPI credentials.
type SerpAPIConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// FetchConfig configures URL content fetching.
type FetchConfig struct {
	TimeoutSecs  int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UseJina      bool            `yaml:"use_jina" mapstructure:"use_jina"`
	ExcludePaths []string        `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	Firecrawl    FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	WaitForMs int    `yaml:"wait_for_ms" mapstructure:"wait_for_ms"`
}

// LLMConfig configures the model roster. Roster entries name providers in
// rotation order: anthropic, gemini, openai or perplexity.
type LLMConfig struct {
	Roster    []string        `yaml:"roster" mapstructure:"roster"`
	MaxTokens int             `yaml:"max_tokens" mapstructure:"max_tokens"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// NewsAPIConfig holds newsapi.org settings.
type NewsAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Days    int    `yaml:"days" mapstructure:"days"`
}

// BatchConfig configures batch funding refreshes.
type BatchConfig struct {
	GroupSize    int `yaml:"group_size" mapstructure:"group_size"`
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
}

// SourcesConfig configures the trusted source registry.
type SourcesConfig struct {
	// RegistryPath is an optional YAML file replacing the built-in registry.
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
	SiteSample   int    `yaml:"site_sample" mapstructure:"site_sample"`
	NewsWindow   string `yaml:"news_window" mapstructure:"news_window"`
}

// ExportConfig configures directory exports.
type ExportConfig struct {
	XLSXPath string       `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	Notion   NotionConfig `yaml:"notion" mapstructure:"notion"`
}

// NotionConfig holds Notion API credentials and the target database.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	DatabaseID string  `yaml:"database_id" mapstructure:"database_id"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

var secretKeys = []string{
	"search.google.key",
	"search.google.cx",
	"search.serpapi.key",
	"search.jina.key",
	"search.perplexity.key",
	"fetch.firecrawl.key",
	"llm.anthropic.key",
	"llm.gemini.key",
	"llm.openai.key",
	"newsapi.key",
	"export.notion.token",
	"export.notion.database_id",
	"store.firestore.project_id",
	"store.firestore.credentials_file",
	"sources.registry_path",
}

// Load reads configuration from ./config.yaml, when present, and the
// environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and the environment. An empty
// path falls back to an optional ./config.yaml; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "intel.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("search.order", []string{"google", "serpapi", "jina", "perplexity"})
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.retries", 2)
	v.SetDefault("search.jina.base_url", "https://r.jina.ai")
	v.SetDefault("search.jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("search.perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("search.perplexity.model", "sonar-pro")
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.use_jina", true)
	v.SetDefault("fetch.exclude_paths", []string{"*.pdf", "/login*", "/signin*"})
	v.SetDefault("fetch.firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("fetch.firecrawl.wait_for_ms", 2000)
	v.SetDefault("llm.roster", []string{"anthropic", "gemini", "openai"})
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("newsapi.base_url", "https://newsapi.org/v2")
	v.SetDefault("newsapi.days", 7)
	v.SetDefault("batch.group_size", 5)
	v.SetDefault("batch.interval_secs", 2)
	v.SetDefault("sources.site_sample", 6)
	v.SetDefault("sources.news_window", "w1")
	v.SetDefault("export.xlsx_path", "directory.xlsx")
	v.SetDefault("export.notion.rate_limit", 3.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "enrich"
// (search and model calls), "serve", "notion" and "store".
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(msg string) { problems = append(problems, msg) }

	switch mode {
	case "enrich":
		c.validateStore(add)
		c.validateBatch(add)
		if !c.hasSearchBackend() {
			add("at least one search backend key is required (search.google.key+cx, search.serpapi.key, search.jina.key or search.perplexity.key)")
		}
		if !c.hasModel() {
			add("at least one llm.roster provider needs a key")
		}
	case "serve":
		c.validateStore(add)
		c.validateBatch(add)
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
	case "notion":
		c.validateStore(add)
		if c.Export.Notion.Token == "" {
			add("export.notion.token is required")
		}
		if c.Export.Notion.DatabaseID == "" {
			add("export.notion.database_id is required")
		}
	case "store":
		c.validateStore(add)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateStore(add func(string)) {
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			add("store.database_url is required")
		}
	case "firestore":
		if c.Store.Firestore.ProjectID == "" {
			add("store.firestore.project_id is required")
		}
	default:
		add("store.driver must be sqlite, postgres or firestore")
	}
}

func (c *Config) validateBatch(add func(string)) {
	if c.Batch.GroupSize < 1 || c.Batch.GroupSize > 50 {
		add("batch.group_size must be between 1 and 50")
	}
	if c.Batch.IntervalSecs < 0 {
		add("batch.interval_secs must be >= 0")
	}
}

func (c *Config) hasSearchBackend() bool {
	s := c.Search
	return (s.Google.Key != "" && s.Google.CX != "") || s.SerpAPI.Key != "" || s.Jina.Key != "" || s.Perplexity.Key != ""
}

// ProviderKey returns the API key configured for a roster entry.
func (c *Config) ProviderKey(name string) string {
	switch name {
	case "anthropic":
		return c.LLM.Anthropic.Key
	case "gemini":
		return c.LLM.Gemini.Key
	case "openai":
		return c.LLM.OpenAI.Key
	case "perplexity":
		return c.Search.Perplexity.Key
	}
	return ""
}

func (c *Config) hasModel() bool {
	for _, name := range c.LLM.Roster {
		if c.ProviderKey(name) != "" {
			return true
		}
	}
	return false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
