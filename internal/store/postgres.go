package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/db"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var companyColumns = []string{"id", "name", "country", "region", "categories", "data", "created_at", "updated_at"}

var newsColumns = []string{"id", "title", "source", "date", "summary", "url", "related", "source_type"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL DEFAULT '',
	categories JSONB NOT NULL DEFAULT '[]',
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS news (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	date        TIMESTAMPTZ NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	related     JSONB NOT NULL DEFAULT '[]',
	source_type TEXT NOT NULL DEFAULT 'press'
);

CREATE TABLE IF NOT EXISTS news_votes (
	news_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	value      SMALLINT NOT NULL CHECK (value IN (-1, 1)),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (news_id, user_id)
);

CREATE TABLE IF NOT EXISTS source_config (
	id               SMALLINT PRIMARY KEY CHECK (id = 1),
	excluded_domains JSONB NOT NULL DEFAULT '[]',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(lower(name));
CREATE INDEX IF NOT EXISTS idx_companies_categories ON companies USING GIN (categories);
CREATE INDEX IF NOT EXISTS idx_news_date ON news(date DESC);
CREATE INDEX IF NOT EXISTS idx_news_related ON news USING GIN (related);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveCompany(ctx context.Context, c model.Company) error {
	args, err := companyArgs(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, country, region, categories, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, country = EXCLUDED.country, region = EXCLUDED.region,
			categories = EXCLUDED.categories, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		args...,
	)
	return eris.Wrapf(err, "postgres: save company %s", c.ID)
}

// SaveCompanies upserts in one COPY round trip. created_at keeps its
// stored value on conflict. A later duplicate id in cs wins.
func (s *PostgresStore) SaveCompanies(ctx context.Context, cs []model.Company) (int, error) {
	rows := make([][]any, 0, len(cs))
	for _, c := range lastByID(cs) {
		args, err := companyArgs(c)
		if err != nil {
			return 0, err
		}
		rows = append(rows, args)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      companyColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"name", "country", "region", "categories", "data", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save companies")
	}
	return int(n), nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM companies WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return decodeCompany(data)
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT data FROM companies WHERE 1=1`
	var args []any
	argN := 1

	if filter.Category != "" {
		query += fmt.Sprintf(` AND categories ? $%d`, argN)
		args = append(args, string(filter.Category))
		argN++
	}
	if filter.Country != "" {
		query += fmt.Sprintf(` AND lower(country) = lower($%d)`, argN)
		args = append(args, filter.Country)
		argN++
	}
	if filter.Region != "" {
		query += fmt.Sprintf(` AND lower(region) = lower($%d)`, argN)
		args = append(args, filter.Region)
		argN++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(` AND strpos(lower(name), lower($%d)) > 0`, argN)
		args = append(args, filter.Query)
		argN++
	}
	query += fmt.Sprintf(` ORDER BY lower(name) LIMIT $%d OFFSET $%d`, argN, argN+1)
	args = append(args, limitOr(filter.Limit), max(filter.Offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		c, err := decodeCompany(data)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

// SaveNews inserts items whose id is new and reports how many were added.
func (s *PostgresStore) SaveNews(ctx context.Context, items []model.NewsItem) (int, error) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		args, err := newsArgs(it)
		if err != nil {
			return 0, err
		}
		rows = append(rows, args)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "news",
		Columns:      newsColumns,
		ConflictKeys: []string{"id"},
		DoNothing:    true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save news")
	}
	return int(n), nil
}

func (s *PostgresStore) ListNews(ctx context.Context, filter NewsFilter) ([]model.NewsItem, error) {
	query := `SELECT id, title, source, date, summary, url, related, source_type FROM news WHERE 1=1`
	var args []any
	argN := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM jsonb_array_elements_text(related) r WHERE lower(r) = lower($%d))`, argN)
		args = append(args, filter.Company)
		argN++
	}
	if filter.SourceType != "" {
		query += fmt.Sprintf(` AND source_type = $%d`, argN)
		args = append(args, string(filter.SourceType))
		argN++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND date >= $%d`, argN)
		args = append(args, filter.Since.UTC())
		argN++
	}
	query += fmt.Sprintf(` ORDER BY date DESC LIMIT $%d`, argN)
	args = append(args, limitOr(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list news")
	}
	defer rows.Close()

	var out []model.NewsItem
	for rows.Next() {
		var it model.NewsItem
		var related []byte
		var sourceType string
		if err := rows.Scan(&it.ID, &it.Title, &it.Source, &it.Date, &it.Summary, &it.URL, &related, &sourceType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan news")
		}
		if err := json.Unmarshal(related, &it.RelatedCompanies); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal related companies")
		}
		it.SourceType = model.SourceType(sourceType)
		out = append(out, it)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list news iterate")
}

func (s *PostgresStore) CastVote(ctx context.Context, v model.Vote) error {
	if err := validateVote(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO news_votes (news_id, user_id, value, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (news_id, user_id) DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at`,
		v.NewsID, v.UserID, int(v.Value), v.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: cast vote on %s", v.NewsID)
}

func (s *PostgresStore) TallyVotes(ctx context.Context, newsIDs []string) (map[string]model.VoteTally, error) {
	if len(newsIDs) == 0 {
		return map[string]model.VoteTally{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT news_id, value FROM news_votes WHERE news_id = ANY($1)`, newsIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: tally votes")
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var v model.Vote
		var value int16
		if err := rows.Scan(&v.NewsID, &value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan vote")
		}
		v.Value = model.VoteValue(value)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: tally votes iterate")
	}
	return tally(newsIDs, votes), nil
}

func (s *PostgresStore) GetSourceConfig(ctx context.Context) (model.SourceConfig, error) {
	var cfg model.SourceConfig
	var excluded []byte
	err := s.pool.QueryRow(ctx,
		`SELECT excluded_domains, updated_at FROM source_config WHERE id = 1`).Scan(&excluded, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SourceConfig{}, nil
	}
	if err != nil {
		return cfg, eris.Wrap(err, "postgres: get source config")
	}
	if err := json.Unmarshal(excluded, &cfg.ExcludedDomains); err != nil {
		return cfg, eris.Wrap(err, "postgres: unmarshal excluded domains")
	}
	return cfg, nil
}

func (s *PostgresStore) SaveSourceConfig(ctx context.Context, cfg model.SourceConfig) error {
	excluded, err := json.Marshal(nonNil(cfg.ExcludedDomains))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal excluded domains")
	}
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO source_config (id, excluded_domains, updated_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET excluded_domains = EXCLUDED.excluded_domains, updated_at = EXCLUDED.updated_at`,
		string(excluded), cfg.UpdatedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save source config")
}
