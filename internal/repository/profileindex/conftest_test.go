package profileindex

import (
	"context"
	"testing"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	replaceFn     func(ctx context.Context, docs []db.Document) error
	delFn         func(ctx context.Context, key string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	infoFn        func(ctx context.Context, name string) (db.IndexInfo, error)
}

func (m *mockStore) ReplaceDocuments(ctx context.Context, docs []db.Document) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, docs)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

// Info reports a missing index unless infoFn says otherwise.
func (m *mockStore) Info(ctx context.Context, name string) (db.IndexInfo, error) {
	if m.infoFn != nil {
		return m.infoFn(ctx, name)
	}
	return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Err: db.ErrIndexNotFound}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, Config{}), ms
}

func testProfile() profile.Profile {
	return profile.Profile{
		ID:               "u2",
		Username:         "bo",
		Age:              34,
		Region:           " CA ",
		AvatarURL:        "https://cdn/bo.png",
		Gender:           "male",
		GenderPreference: "female",
		SubscriptionTier: "Dating",
		TopicTags:        []string{"hiking", "reading"},
		AnswerText:       "weekends outdoors",
		SelectedTags:     []string{"music"},
	}
}
