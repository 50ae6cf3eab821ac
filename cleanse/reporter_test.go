package cleanse

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonode/bls-cleanse/interfaces"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	reporter := LogReporter{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	reporter.Before("one1val", keys(keyA, keyB), keys(keyA))
	reporter.Metrics("one1val", &interfaces.MetricsBlock{ByKey: []interfaces.KeyMetric{
		{Key: keyA, ShardID: 2, EarnedReward: big.NewInt(7)},
		{Key: keyB, ShardID: 2},
	}})
	reporter.Metrics("one1val", nil)
	reporter.After(&interfaces.CleanseReport{
		SessionID: "s1",
		Validator: "one1val",
		Removed:   keys(keyB),
		After:     keys(keyA),
		Failures:  []interfaces.RemovalFailure{{Key: keyC, Error: "gone"}},
	})

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}

	msgs := make([]string, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, rec["msg"].(string))
	}
	assert.Equal(t, []string{
		"Keys of validator on chain (before cleanse)",
		"This node's BLS key(s)",
		"BLS key metrics",
		"Cleansed following BLS keys",
		"BLS key could not be removed",
		"Keys on validator (after cleanse)",
	}, msgs)

	metrics := records[2]
	assert.Equal(t, map[string]any{"shard": float64(2), "earnedReward": "7"}, metrics[keyA.Short()])
	assert.Equal(t, map[string]any{"shard": float64(2), "earnedReward": "unknown"}, metrics[keyB.Short()])
}

func TestMultiReporter(t *testing.T) {
	first := &recordingReporter{}
	second := &recordingReporter{}
	multi := MultiReporter{first, second, NopReporter{}}

	multi.Before("one1val", keys(keyA), nil)
	multi.After(&interfaces.CleanseReport{})

	assert.Equal(t, []string{"before", "after"}, first.events)
	assert.Equal(t, first.events, second.events)
}
