package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujadis/geraship/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "nested", "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestRepository_SaveAndFetchSnapshot(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	positions := []domain.Position{
		{
			ID:            42,
			Asset:         "BTC-PERP",
			Size:          domain.Float(-1.5),
			EntryPrice:    domain.Float(65000),
			Leverage:      domain.Float(20),
			IsLong:        domain.Bool(false),
			PnL:           domain.Float(-1200.5),
			PnLPercentage: domain.Float(3.2),
			Status:        domain.StatusActive,
			CreatedAt:     domain.Time(created),
			UpdatedAt:     domain.Time(created.Add(2 * time.Hour)),
			Address:       "0xabc",
		},
		{ID: 7, Asset: "ETH"},
		{ID: 3, Address: "0xdef", IsLong: domain.Bool(true)},
	}
	require.NoError(t, repo.SaveSnapshot(ctx, positions))

	got, err := repo.FetchPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int64{42, 7, 3}, []int64{got[0].ID, got[1].ID, got[2].ID}, "source order is preserved")

	first := got[0]
	assert.Equal(t, "BTC-PERP", first.Asset)
	require.NotNil(t, first.Size)
	assert.Equal(t, -1.5, *first.Size)
	assert.Equal(t, 65000.0, *first.EntryPrice)
	assert.Equal(t, 20.0, *first.Leverage)
	require.NotNil(t, first.IsLong)
	assert.False(t, *first.IsLong)
	assert.Equal(t, -1200.5, *first.PnL)
	assert.Equal(t, 3.2, *first.PnLPercentage)
	assert.Equal(t, domain.StatusActive, first.Status)
	require.NotNil(t, first.CreatedAt)
	assert.True(t, created.Equal(*first.CreatedAt))
	assert.True(t, created.Add(2*time.Hour).Equal(*first.UpdatedAt))
	assert.Equal(t, "0xabc", first.Address)

	sparse := got[1]
	assert.Nil(t, sparse.Size)
	assert.Nil(t, sparse.EntryPrice)
	assert.Nil(t, sparse.Leverage)
	assert.Nil(t, sparse.IsLong)
	assert.Nil(t, sparse.PnL)
	assert.Nil(t, sparse.CreatedAt)
	assert.Equal(t, domain.DirectionUnknown, sparse.Direction())

	assert.Equal(t, domain.DirectionLong, got[2].Direction())
}

func TestRepository_SaveSnapshotReplaces(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSnapshot(ctx, []domain.Position{{ID: 1}, {ID: 2}, {ID: 3}}))
	count, err := repo.CountPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, repo.SaveSnapshot(ctx, []domain.Position{{ID: 9}}))
	got, err := repo.FetchPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)
}

func TestRepository_EmptyStore(t *testing.T) {
	repo := setupTestDB(t)
	assert.Equal(t, "sqlite", repo.Name())

	got, err := repo.FetchPositions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepository_CanceledContext(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SaveSnapshot(ctx, []domain.Position{{ID: 1}})
	assert.Error(t, err)

	count, err := repo.CountPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
