package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

type memoryCacheRepo struct {
	items map[string][]byte
	gets  int
	sets  int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func TestGradeQueryByStatus(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t)
	ctx := context.Background()
	a := f.createGrade(t, "MAT101", 10)
	b := f.createGrade(t, "MAT101", 11)
	c := f.createGrade(t, "MAT101", 12)
	_, err := f.grades.VerifyGrade(ctx, head, b)
	require.NoError(t, err)
	_, err = f.grades.VerifyGrade(ctx, head, c)
	require.NoError(t, err)
	_, err = f.grades.RatifyGrade(ctx, director, c)
	require.NoError(t, err)

	pending, err := f.queries.GetGradesByStatus(models.GradeStatusPending)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a}, pending)

	verified, err := f.queries.GetGradesByStatus(models.GradeStatusDepartmentVerified)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b}, verified)

	approved, err := f.queries.GetGradesByStatus(models.GradeStatusDirectorApproved)
	require.NoError(t, err)
	assert.Empty(t, approved)

	_, err = f.queries.GetGradesByStatus("ARCHIVED")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	stats, hit := f.queries.Stats(ctx)
	assert.False(t, hit)
	assert.Equal(t, models.GradeStats{Total: 3, Pending: 1, DepartmentVerified: 1, Finalized: 1, LastSequence: f.ledger.Sequence()}, stats)
}

func TestGradeQueryStatsCachedPerSequence(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t)
	repo := newMemoryCacheRepo()
	queries := NewGradeQueryService(f.ledger, NewCacheService(repo, NewMetricsService(), time.Minute, nil, true), nil)
	ctx := context.Background()

	f.createGrade(t, "MAT101", 10)
	first, hit := queries.Stats(ctx)
	assert.False(t, hit)
	again, hit := queries.Stats(ctx)
	assert.True(t, hit)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, repo.sets)
	assert.Contains(t, repo.items, statsCacheKey(f.ledger.Sequence()))

	f.createGrade(t, "MAT101", 11)
	fresh, _ := queries.Stats(ctx)
	assert.Equal(t, 2, fresh.Total)
	assert.Equal(t, 2, repo.sets)
}
