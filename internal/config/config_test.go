package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "intel.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"google", "serpapi", "jina", "perplexity"}, cfg.Search.Order)
	assert.Equal(t, "https://r.jina.ai", cfg.Search.Jina.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Search.Perplexity.Model)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Fetch.Firecrawl.BaseURL)
	assert.True(t, cfg.Fetch.UseJina)
	assert.Equal(t, []string{"anthropic", "gemini", "openai"}, cfg.LLM.Roster)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 7, cfg.NewsAPI.Days)
	assert.Equal(t, 5, cfg.Batch.GroupSize)
	assert.Equal(t, 2, cfg.Batch.IntervalSecs)
	assert.Equal(t, 6, cfg.Sources.SiteSample)
	assert.Equal(t, "w1", cfg.Sources.NewsWindow)
	assert.InDelta(t, 3.0, cfg.Export.Notion.RateLimit, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/intel
log:
  level: debug
  format: console
server:
  port: 9090
llm:
  roster: [gemini]
batch:
  group_size: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/intel", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"gemini"}, cfg.LLM.Roster)
	assert.Equal(t, 10, cfg.Batch.GroupSize)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Batch.IntervalSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTEL_STORE_DRIVER", "firestore")
	t.Setenv("INTEL_LOG_LEVEL", "warn")
	t.Setenv("INTEL_LLM_ANTHROPIC_KEY", "sk-ant")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "firestore", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.Key)
}

func TestLoadFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\nlog:\n  level: debug\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port, "defaults still apply")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit config path must exist")
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "intel.db"
	cfg.Server.Port = 8080
	cfg.Batch.GroupSize = 5
	cfg.Batch.IntervalSecs = 2
	cfg.LLM.Roster = []string{"anthropic", "gemini"}
	return cfg
}

func TestValidateEnrich(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{
			name: "serpapi and gemini",
			mutate: func(c *Config) {
				c.Search.SerpAPI.Key = "serp"
				c.LLM.Gemini.Key = "gem"
			},
		},
		{
			name: "google needs cx",
			mutate: func(c *Config) {
				c.Search.Google.Key = "g"
				c.LLM.Anthropic.Key = "a"
			},
			wantErr: []string{"search backend"},
		},
		{
			name: "key outside roster does not count",
			mutate: func(c *Config) {
				c.Search.Jina.Key = "j"
				c.LLM.OpenAI.Key = "o"
			},
			wantErr: []string{"llm.roster"},
		},
		{
			name:    "nothing configured",
			mutate:  func(*Config) {},
			wantErr: []string{"search backend", "llm.roster"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("enrich")
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateBatchBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.GroupSize = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.group_size must be between 1 and 50")

	cfg.Batch.GroupSize = 50
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Batch.IntervalSecs = -1
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateStoreDrivers(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "firestore"
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.firestore.project_id")

	cfg.Store.Firestore.ProjectID = "intel-prod"
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate("store"))

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateNotion(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("notion")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.notion.token is required")
	assert.Contains(t, err.Error(), "export.notion.database_id is required")

	cfg.Export.Notion.Token = "ntn"
	cfg.Export.Notion.DatabaseID = "db"
	assert.NoError(t, cfg.Validate("notion"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestProviderKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.Perplexity.Key = "pplx"
	cfg.LLM.Anthropic.Key = "ant"

	assert.Equal(t, "pplx", cfg.ProviderKey("perplexity"))
	assert.Equal(t, "ant", cfg.ProviderKey("anthropic"))
	assert.Empty(t, cfg.ProviderKey("mistral"))
}
