package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujadis/geraship/internal/analytics"
	"github.com/hujadis/geraship/internal/domain"
)

func TestFindSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"positions_20250102.csv", "positions_20250101.csv", "other.csv", "positions_x.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("id\n"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "positions_dir.csv"), 0755))

	files, err := findSnapshotFiles(dir, "positions_")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "positions_20250101.csv"),
		filepath.Join(dir, "positions_20250102.csv"),
	}, files)
}

func TestTopCall(t *testing.T) {
	assert.Equal(t, "-", topCall(analytics.Report{}))

	var positions []domain.Position
	for i := 0; i < 4; i++ {
		positions = append(positions, domain.Position{
			Asset: "ETH", IsLong: domain.Bool(false), Leverage: domain.Float(30),
			EntryPrice: domain.Float(2000), PnL: domain.Float(-3000),
		})
	}
	r := analytics.Analyze(positions, analytics.Options{Now: time.Now(), IncludeRecommendations: true})
	assert.Equal(t, "SHORT ETH (95)", topCall(r))
}
