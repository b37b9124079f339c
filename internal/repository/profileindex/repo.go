package profileindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

// Defaults for the Redis profile index.
const (
	DefaultIndex     = "discovery:profiles:idx"
	DefaultKeyPrefix = "discovery:profile:"
)

// store is the consumer interface for the profile index (ISP).
type store interface {
	ReplaceDocuments(ctx context.Context, docs []db.Document) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	Info(ctx context.Context, name string) (db.IndexInfo, error)
}

// Config names the index and its key prefix.
type Config struct {
	Index     string
	KeyPrefix string
}

// Repo writes profiles into the FT index used by discovery searches.
type Repo struct {
	store store
	cfg   Config
}

// New creates a profile index repository. Empty config fields take the defaults.
func New(s store, cfg Config) *Repo {
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Repo{store: s, cfg: cfg}
}

// Index returns the FT index name.
func (r *Repo) Index() string { return r.cfg.Index }

// KeyPrefix returns the hash key prefix.
func (r *Repo) KeyPrefix() string { return r.cfg.KeyPrefix }

// EnsureIndex creates the index unless it exists. It reports whether it created one.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	_, err := r.store.Info(ctx, r.cfg.Index)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		return false, fmt.Errorf("check index %s: %w", r.cfg.Index, err)
	}

	def, err := buildIndex(r.cfg.Index, r.cfg.KeyPrefix)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// created concurrently by another indexer
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.cfg.Index, err)
	}
	return true, nil
}

// Recreate drops the index (keeping the documents) and creates it again,
// forcing a rescan with the current schema.
func (r *Repo) Recreate(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.cfg.Index); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.cfg.Index, err)
	}

	def, err := buildIndex(r.cfg.Index, r.cfg.KeyPrefix)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.cfg.Index, err)
	}
	return nil
}

// Count reports how many profiles the index currently holds.
func (r *Repo) Count(ctx context.Context) (int, error) {
	info, err := r.store.Info(ctx, r.cfg.Index)
	if err != nil {
		return 0, fmt.Errorf("index info %s: %w", r.cfg.Index, err)
	}
	return info.NumDocs, nil
}

// PutBatch replaces the stored documents of profiles in one round trip.
func (r *Repo) PutBatch(ctx context.Context, profiles []profile.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	docs := make([]db.Document, len(profiles))
	for i := range profiles {
		docs[i] = db.Document{
			Key:    r.key(profiles[i].ID),
			Fields: profileToHash(&profiles[i]),
		}
	}

	if err := r.store.ReplaceDocuments(ctx, docs); err != nil {
		return fmt.Errorf("write %d profiles: %w", len(docs), err)
	}
	return nil
}

// Remove deletes a profile document. Missing documents are not an error.
func (r *Repo) Remove(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("del profile %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.cfg.KeyPrefix + id
}
