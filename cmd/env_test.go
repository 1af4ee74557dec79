package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/config"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Search.Order = []string{"google", "serpapi", "jina", "perplexity", "bing"}
	c.Search.Retries = 1
	c.LLM.Roster = []string{"anthropic", "gemini", "openai", "perplexity"}
	c.LLM.MaxTokens = 1024
	c.Batch.GroupSize = 5
	return c
}

func TestBuildSearchers_SkipsMissingKeys(t *testing.T) {
	c := testConfig()
	c.Search.Google.Key = "g" // no cx
	c.Search.SerpAPI.Key = "serp"
	c.Search.Jina.Key = "jina"

	got, err := buildSearchers(context.Background(), c)
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"serpapi", "jina"}, names)
}

func TestBuildSearchers_FollowsOrder(t *testing.T) {
	c := testConfig()
	c.Search.Order = []string{"perplexity", "serpapi"}
	c.Search.SerpAPI.Key = "serp"
	c.Search.Perplexity.Key = "pplx"
	c.Search.Perplexity.Model = "sonar"

	got, err := buildSearchers(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "perplexity", got[0].Name())
	assert.Equal(t, "serpapi", got[1].Name())
}

func TestBuildRoster(t *testing.T) {
	c := testConfig()
	c.LLM.Anthropic.Key = "ant"
	c.LLM.Anthropic.Model = "claude-haiku"
	c.LLM.OpenAI.Key = "oai"
	c.LLM.OpenAI.Model = "gpt-4o-mini"
	c.Search.Perplexity.Key = "pplx"
	c.Search.Perplexity.Model = "sonar"

	roster, err := buildRoster(context.Background(), c)
	require.NoError(t, err)

	names := make([]string, len(roster))
	for i, p := range roster {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"anthropic/claude-haiku", "openai/gpt-4o-mini", "perplexity/sonar"}, names)
}

func TestBuildFetcher(t *testing.T) {
	c := testConfig()
	assert.Equal(t, "chain", buildFetcher(c).Name())
}

func TestLoadRegistry(t *testing.T) {
	c := testConfig()
	reg, err := loadRegistry(c)
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Sources())

	c.Sources.RegistryPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadRegistry(c)
	assert.Error(t, err)
}

func TestStoreExclusions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	fn := storeExclusions(st)
	assert.Empty(t, fn(ctx).ExcludedDomains)

	require.NoError(t, st.SaveSourceConfig(ctx, model.SourceConfig{ExcludedDomains: []string{"decrypt.co"}}))
	assert.Equal(t, []string{"decrypt.co"}, fn(ctx).ExcludedDomains)
}

func TestBuildService(t *testing.T) {
	c := testConfig()
	c.Search.SerpAPI.Key = "serp"
	c.LLM.Anthropic.Key = "ant"
	c.LLM.Anthropic.Model = "claude-haiku"

	svc, rot, err := buildService(context.Background(), c, newTestStore(t))
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, []string{"anthropic/claude-haiku"}, rot.Names())
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posting.txt")
	require.NoError(t, os.WriteFile(path, []byte("Head of Partnerships"), 0o644))

	got, err := readText(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "Head of Partnerships", got)

	got, err = readText(strings.NewReader("from stdin"), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readText(nil, filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
