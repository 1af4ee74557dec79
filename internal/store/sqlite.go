package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '[]',
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS news (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	date        DATETIME NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	related     TEXT NOT NULL DEFAULT '[]',
	source_type TEXT NOT NULL DEFAULT 'press'
);

CREATE TABLE IF NOT EXISTS news_votes (
	news_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	value      INTEGER NOT NULL CHECK (value IN (-1, 1)),
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (news_id, user_id)
);

CREATE TABLE IF NOT EXISTS source_config (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	excluded_domains TEXT NOT NULL DEFAULT '[]',
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(lower(name));
CREATE INDEX IF NOT EXISTS idx_companies_country ON companies(country);
CREATE INDEX IF NOT EXISTS idx_news_date ON news(date);
CREATE INDEX IF NOT EXISTS idx_news_source_type ON news(source_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsertCompany = `INSERT INTO companies (id, name, country, region, categories, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		country = excluded.country,
		region = excluded.region,
		categories = excluded.categories,
		data = excluded.data,
		updated_at = excluded.updated_at`

func (s *SQLiteStore) SaveCompany(ctx context.Context, c model.Company) error {
	args, err := companyArgs(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, sqliteUpsertCompany, args...)
	return eris.Wrapf(err, "sqlite: save company %s", c.ID)
}

func (s *SQLiteStore) SaveCompanies(ctx context.Context, cs []model.Company) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save companies")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertCompany)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare save companies")
	}
	defer stmt.Close()

	for _, c := range cs {
		args, err := companyArgs(c)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: save company %s", c.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save companies")
	}
	return len(cs), nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM companies WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return decodeCompany([]byte(data))
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT data FROM companies WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(companies.categories) WHERE value = ?)`
		args = append(args, string(filter.Category))
	}
	if filter.Country != "" {
		query += ` AND lower(country) = lower(?)`
		args = append(args, filter.Country)
	}
	if filter.Region != "" {
		query += ` AND lower(region) = lower(?)`
		args = append(args, filter.Region)
	}
	if filter.Query != "" {
		query += ` AND instr(lower(name), lower(?)) > 0`
		args = append(args, filter.Query)
	}
	query += ` ORDER BY lower(name) LIMIT ?`
	args = append(args, limitOr(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		c, err := decodeCompany([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteStore) SaveNews(ctx context.Context, items []model.NewsItem) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save news")
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, it := range items {
		args, err := newsArgs(it)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO news (id, title, source, date, summary, url, related, source_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`, args...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: save news %s", it.ID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save news")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListNews(ctx context.Context, filter NewsFilter) ([]model.NewsItem, error) {
	query := `SELECT id, title, source, date, summary, url, related, source_type FROM news WHERE 1=1`
	var args []any

	if filter.Company != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(news.related) WHERE lower(value) = lower(?))`
		args = append(args, filter.Company)
	}
	if filter.SourceType != "" {
		query += ` AND source_type = ?`
		args = append(args, string(filter.SourceType))
	}
	if !filter.Since.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY date DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list news")
	}
	defer rows.Close()

	var out []model.NewsItem
	for rows.Next() {
		var it model.NewsItem
		var related, sourceType string
		if err := rows.Scan(&it.ID, &it.Title, &it.Source, &it.Date, &it.Summary, &it.URL, &related, &sourceType); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan news")
		}
		if err := json.Unmarshal([]byte(related), &it.RelatedCompanies); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal related companies")
		}
		it.SourceType = model.SourceType(sourceType)
		out = append(out, it)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list news iterate")
}

func (s *SQLiteStore) CastVote(ctx context.Context, v model.Vote) error {
	if err := validateVote(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO news_votes (news_id, user_id, value, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (news_id, user_id) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		v.NewsID, v.UserID, int(v.Value), v.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: cast vote on %s", v.NewsID)
}

func (s *SQLiteStore) TallyVotes(ctx context.Context, newsIDs []string) (map[string]model.VoteTally, error) {
	if len(newsIDs) == 0 {
		return map[string]model.VoteTally{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(newsIDs)), ",")
	args := make([]any, len(newsIDs))
	for i, id := range newsIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT news_id, value FROM news_votes WHERE news_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: tally votes")
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var v model.Vote
		var value int
		if err := rows.Scan(&v.NewsID, &value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan vote")
		}
		v.Value = model.VoteValue(value)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: tally votes iterate")
	}
	return tally(newsIDs, votes), nil
}

func (s *SQLiteStore) GetSourceConfig(ctx context.Context) (model.SourceConfig, error) {
	var cfg model.SourceConfig
	var excluded string
	err := s.db.QueryRowContext(ctx,
		`SELECT excluded_domains, updated_at FROM source_config WHERE id = 1`).Scan(&excluded, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SourceConfig{}, nil
	}
	if err != nil {
		return cfg, eris.Wrap(err, "sqlite: get source config")
	}
	if err := json.Unmarshal([]byte(excluded), &cfg.ExcludedDomains); err != nil {
		return cfg, eris.Wrap(err, "sqlite: unmarshal excluded domains")
	}
	return cfg, nil
}

func (s *SQLiteStore) SaveSourceConfig(ctx context.Context, cfg model.SourceConfig) error {
	excluded, err := json.Marshal(nonNil(cfg.ExcludedDomains))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal excluded domains")
	}
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO source_config (id, excluded_domains, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET excluded_domains = excluded.excluded_domains, updated_at = excluded.updated_at`,
		string(excluded), cfg.UpdatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save source config")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

// companyArgs renders the upsert arguments shared by SQL backends.
func companyArgs(c model.Company) ([]any, error) {
	c, err := stampCompany(c)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal company")
	}
	cats, err := json.Marshal(nonNil(c.Categories))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal categories")
	}
	return []any{c.ID, c.Name, c.Country, c.Region, string(cats), string(data), c.CreatedAt.UTC(), c.UpdatedAt.UTC()}, nil
}

func newsArgs(it model.NewsItem) ([]any, error) {
	if it.ID == "" {
		it.ID = model.NewsID(it.URL, it.Title)
	}
	related, err := json.Marshal(nonNil(it.RelatedCompanies))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal related companies")
	}
	sourceType := it.SourceType
	if sourceType == "" {
		sourceType = model.SourceTypePress
	}
	return []any{it.ID, it.Title, it.Source, it.Date.UTC(), it.Summary, it.URL, string(related), string(sourceType)}, nil
}

func decodeCompany(data []byte) (*model.Company, error) {
	var c model.Company
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal company")
	}
	return &c, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
