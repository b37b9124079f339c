package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
	domprofile "github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/repository/profile"
)

// setup in-memory DB
func setupRepo(t *testing.T) *profile.Repo {
	t.Helper()
	gdb, err := profile.Open(profile.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return profile.New(gdb)
}

func sample(id, tier string) *domprofile.Profile {
	return &domprofile.Profile{
		ID:               id,
		Username:         "user-" + id,
		Age:              30,
		Region:           "CA",
		Gender:           "male",
		GenderPreference: "female",
		SubscriptionTier: tier,
		TopicTags:        []string{"hiking", "books"},
		AnswerText:       "I like long walks",
		SelectedTags:     []string{"outdoors"},
	}
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	require.NoError(t, repo.Upsert(ctx, sample("u1", "dating")))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "user-u1", got.Username)
	assert.Equal(t, []string{"hiking", "books"}, got.TopicTags)
	assert.Equal(t, []string{"outdoors"}, got.SelectedTags)
	assert.Equal(t, "female", got.GenderPreference)

	// overwrite
	p := sample("u1", "basic")
	p.Region = "NY"
	p.TopicTags = nil
	require.NoError(t, repo.Upsert(ctx, p))

	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NY", got.Region)
	assert.Equal(t, "basic", got.SubscriptionTier)
	assert.Empty(t, got.TopicTags)
}

func TestGet_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)
}

func TestUpsert_RejectsInvalid(t *testing.T) {
	repo := setupRepo(t)

	err := repo.Upsert(context.Background(), &domprofile.Profile{ID: "u1"})
	assert.Error(t, err)
}

func TestTier(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	require.NoError(t, repo.Upsert(ctx, sample("u1", " Dating ")))

	tier, err := repo.Tier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.TierDating, tier)

	_, err = repo.Tier(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound), "got %v", err)
}

func TestListAfter_KeysetPagination(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	for _, id := range []string{"u3", "u1", "u2", "u4", "u5"} {
		require.NoError(t, repo.Upsert(ctx, sample(id, "free")))
	}

	var seen []string
	after := ""
	for {
		batch, err := repo.ListAfter(ctx, after, 2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, p := range batch {
			seen = append(seen, p.ID)
		}
		after = batch[len(batch)-1].ID
	}

	assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5"}, seen)
}

func TestPing(t *testing.T) {
	repo := setupRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
