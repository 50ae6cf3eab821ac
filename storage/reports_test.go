package storage

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonode/bls-cleanse/interfaces"
)

func testReport() *interfaces.CleanseReport {
	started := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	return &interfaces.CleanseReport{
		SessionID: "5d3c3c1e-3f1e-4b43-9d0b-8d2b1f0f7a11",
		Validator: "one1pdv9lrdwl0rg5vglh4xtyrv3wjk3wsqket7zxy",
		Policy:    interfaces.RewardCleanse,
		LocalKeys: []interfaces.BLSKeyID{"aa"},
		Before:    []interfaces.BLSKeyID{"aa", "bb", "cc"},
		After:     []interfaces.BLSKeyID{"aa", "cc"},
		Removed:   []interfaces.BLSKeyID{"bb"},
		Decisions: []interfaces.RemovalDecision{{Key: "bb", Reason: "that earned zero rewards", Confirmed: true}},
		Metrics: &interfaces.MetricsBlock{ByKey: []interfaces.KeyMetric{
			{Key: "aa", ShardID: 1, EarnedReward: big.NewInt(12)},
			{Key: "bb", ShardID: 1, EarnedReward: big.NewInt(0)},
			{Key: "cc", ShardID: 1, EarnedReward: nil},
		}},
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
	}
}

func TestReportArchive_StoreLoad(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)
	archive := NewReportArchive(backend, discardLogger())

	report := testReport()
	id, err := archive.Store(context.Background(), report)
	require.NoError(t, err)

	loaded, err := archive.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, report.SessionID, loaded.SessionID)
	assert.Equal(t, report.Policy, loaded.Policy)
	assert.Equal(t, report.Removed, loaded.Removed)
	assert.Equal(t, report.After, loaded.After)
	assert.True(t, report.StartedAt.Equal(loaded.StartedAt))

	require.NotNil(t, loaded.Metrics)
	require.Len(t, loaded.Metrics.ByKey, 3)
	assert.Equal(t, 0, loaded.Metrics.ByKey[0].EarnedReward.Cmp(big.NewInt(12)))
	assert.Nil(t, loaded.Metrics.ByKey[2].EarnedReward, "unknown rewards stay unknown")
}

func TestReportArchive_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)
	archive := NewReportArchive(backend, discardLogger())

	id, err := archive.Store(context.Background(), testReport())
	require.NoError(t, err)

	path := filepath.Join(dir, interfaces.ReportType.String(), id.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"removed":[]}`), 0o644))

	_, err = archive.Load(context.Background(), id)
	assert.ErrorContains(t, err, "does not match")
}

func TestReportArchive_Missing(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)
	archive := NewReportArchive(backend, discardLogger())

	_, err = archive.Load(context.Background(), interfaces.ComputeID([]byte("nothing")))
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestReportArchive_AsReporter(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)
	archive := NewReportArchive(backend, discardLogger())

	report := testReport()
	archive.AsReporter(time.Second).After(report)

	entries, err := os.ReadDir(filepath.Join(dir, interfaces.ReportType.String()))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	id, err := interfaces.NewContentIDFromHex(entries[0].Name()[:64])
	require.NoError(t, err)
	loaded, err := archive.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, report.SessionID, loaded.SessionID)
}
