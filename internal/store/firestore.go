package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

const (
	colCompanies = "companies"
	colNews      = "news"
	colVotes     = "news_votes"
	colConfig    = "config"
	docSources   = "sources"

	// Firestore caps "in" filters at 30 values.
	maxInValues = 30
)

// FirestoreConfig selects the Firebase project and credentials.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// FirestoreStore implements Store on Cloud Firestore. Collections mirror
// the SQL tables; list filters beyond category run in memory.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestore initializes a Firebase app and opens its Firestore client.
// FIRESTORE_EMULATOR_HOST is honored by the client library.
func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "firestore: init firebase app")
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "firestore: open client")
	}
	return &FirestoreStore{client: client}, nil
}

// Migrate is a no-op: Firestore collections are created on first write.
func (s *FirestoreStore) Migrate(context.Context) error { return nil }

func (s *FirestoreStore) Close() error {
	return eris.Wrap(s.client.Close(), "firestore: close")
}

func (s *FirestoreStore) SaveCompany(ctx context.Context, c model.Company) error {
	c, err := stampCompany(c)
	if err != nil {
		return err
	}
	_, err = s.client.Collection(colCompanies).Doc(c.ID).Set(ctx, c)
	return eris.Wrapf(err, "firestore: save company %s", c.ID)
}

func (s *FirestoreStore) SaveCompanies(ctx context.Context, cs []model.Company) (int, error) {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(cs))
	for _, c := range lastByID(cs) {
		c, err := stampCompany(c)
		if err != nil {
			bw.End()
			return 0, err
		}
		job, err := bw.Set(s.client.Collection(colCompanies).Doc(c.ID), c)
		if err != nil {
			bw.End()
			return 0, eris.Wrapf(err, "firestore: queue company %s", c.ID)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	saved := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	return saved, eris.Wrap(firstErr, "firestore: save companies")
}

func (s *FirestoreStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	snap, err := s.client.Collection(colCompanies).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "firestore: get company %s", id)
	}
	var c model.Company
	if err := snap.DataTo(&c); err != nil {
		return nil, eris.Wrapf(err, "firestore: decode company %s", id)
	}
	return &c, nil
}

func (s *FirestoreStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	q := s.client.Collection(colCompanies).Query
	if filter.Category != "" {
		q = q.Where("categories", "array-contains", string(filter.Category))
	}
	var all []model.Company
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "firestore: list companies")
		}
		var c model.Company
		if err := snap.DataTo(&c); err != nil {
			return nil, eris.Wrapf(err, "firestore: decode company %s", snap.Ref.ID)
		}
		all = append(all, c)
	}
	return filterCompanies(all, filter), nil
}

func (s *FirestoreStore) DeleteCompany(ctx context.Context, id string) error {
	ref := s.client.Collection(colCompanies).Doc(id)
	// Delete succeeds on missing docs unless guarded by a precondition.
	_, err := ref.Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return eris.Wrapf(err, "firestore: delete company %s", id)
}

// SaveNews creates items whose id is new. Existing ids are left alone.
func (s *FirestoreStore) SaveNews(ctx context.Context, items []model.NewsItem) (int, error) {
	inserted := 0
	for _, it := range items {
		if it.ID == "" {
			it.ID = model.NewsID(it.URL, it.Title)
		}
		if it.SourceType == "" {
			it.SourceType = model.SourceTypePress
		}
		_, err := s.client.Collection(colNews).Doc(it.ID).Create(ctx, it)
		if status.Code(err) == codes.AlreadyExists {
			continue
		}
		if err != nil {
			return inserted, eris.Wrapf(err, "firestore: save news %s", it.ID)
		}
		inserted++
	}
	return inserted, nil
}

func (s *FirestoreStore) ListNews(ctx context.Context, filter NewsFilter) ([]model.NewsItem, error) {
	q := s.client.Collection(colNews).OrderBy("date", firestore.Desc)
	if !filter.Since.IsZero() {
		q = q.Where("date", ">=", filter.Since)
	}
	var all []model.NewsItem
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "firestore: list news")
		}
		var it model.NewsItem
		if err := snap.DataTo(&it); err != nil {
			return nil, eris.Wrapf(err, "firestore: decode news %s", snap.Ref.ID)
		}
		all = append(all, it)
	}
	return filterNews(all, filter), nil
}

func (s *FirestoreStore) CastVote(ctx context.Context, v model.Vote) error {
	if err := validateVote(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.client.Collection(colVotes).Doc(v.NewsID+"_"+v.UserID).Set(ctx, v)
	return eris.Wrapf(err, "firestore: cast vote on %s", v.NewsID)
}

func (s *FirestoreStore) TallyVotes(ctx context.Context, newsIDs []string) (map[string]model.VoteTally, error) {
	var votes []model.Vote
	for start := 0; start < len(newsIDs); start += maxInValues {
		chunk := newsIDs[start:min(start+maxInValues, len(newsIDs))]
		iter := s.client.Collection(colVotes).Where("newsId", "in", chunk).Documents(ctx)
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, eris.Wrap(err, "firestore: tally votes")
			}
			var v model.Vote
			if err := snap.DataTo(&v); err != nil {
				iter.Stop()
				return nil, eris.Wrapf(err, "firestore: decode vote %s", snap.Ref.ID)
			}
			votes = append(votes, v)
		}
		iter.Stop()
	}
	return tally(newsIDs, votes), nil
}

func (s *FirestoreStore) GetSourceConfig(ctx context.Context) (model.SourceConfig, error) {
	snap, err := s.client.Collection(colConfig).Doc(docSources).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.SourceConfig{}, nil
	}
	if err != nil {
		return model.SourceConfig{}, eris.Wrap(err, "firestore: get source config")
	}
	var cfg model.SourceConfig
	if err := snap.DataTo(&cfg); err != nil {
		return model.SourceConfig{}, eris.Wrap(err, "firestore: decode source config")
	}
	return cfg, nil
}

func (s *FirestoreStore) SaveSourceConfig(ctx context.Context, cfg model.SourceConfig) error {
	cfg.ExcludedDomains = nonNil(cfg.ExcludedDomains)
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now()
	}
	_, err := s.client.Collection(colConfig).Doc(docSources).Set(ctx, cfg)
	return eris.Wrap(err, "firestore: save source config")
}
