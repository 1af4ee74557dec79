package enrich

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/stablecoin-intel/internal/sources"
)

func TestJobQueries_TargetJobBoards(t *testing.T) {
	t.Parallel()

	qs := jobQueries("Paxos")
	assert.Len(t, qs, 2)
	assert.True(t, strings.HasPrefix(qs[0], `"Paxos" (site:greenhouse.io OR site:lever.co`))
}

func TestTargeted_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() string {
		svc := New(nil, nil, nil, nil, WithRand(rand.New(rand.NewPCG(7, 7))))
		return svc.targeted(`"Circle" stablecoin`, sources.Config{})
	}
	first := build()
	assert.Equal(t, first, build())
	assert.Contains(t, first, "site:")
	assert.Equal(t, DefaultConfig().SiteSample, strings.Count(first, "site:"))
}

func TestTargeted_HonoursExclusions(t *testing.T) {
	t.Parallel()

	reg := sources.Default()
	var excluded []string
	for _, src := range reg.Sources() {
		excluded = append(excluded, src.Domain)
	}
	svc := New(nil, nil, nil, reg, WithExclusions(func(context.Context) sources.Config {
		return sources.Config{ExcludedDomains: excluded}
	}))

	q := svc.targeted(`"Circle"`, svc.exclusions(context.Background()))
	assert.Equal(t, `"Circle"`, q)
}
