package cleanse

import (
	"log/slog"

	"github.com/autonode/bls-cleanse/interfaces"
)

// NopReporter discards all snapshots.
type NopReporter struct{}

func (NopReporter) Before(string, []interfaces.BLSKeyID, []interfaces.BLSKeyID) {}
func (NopReporter) Metrics(string, *interfaces.MetricsBlock) {}
func (NopReporter) After(*interfaces.CleanseReport) {}

// LogReporter writes session snapshots as structured log records.
type LogReporter struct {
	Log *slog.Logger
}

// Before logs the on-chain and local key sets.
func (r LogReporter) Before(validator string, onChain []interfaces.BLSKeyID, local []interfaces.BLSKeyID) {
	r.Log.Info("Keys of validator on chain (before cleanse)",
		slog.String("validator", validator),
		slog.Any("keys", onChain))
	r.Log.Info("This node's BLS key(s)", slog.Any("keys", local))
}

// Metrics logs the per-key reward snapshot.
func (r LogReporter) Metrics(validator string, metrics *interfaces.MetricsBlock) {
	if metrics == nil {
		return
	}
	attrs := make([]any, 0, len(metrics.ByKey))
	for _, m := range metrics.ByKey {
		reward := "unknown"
		if m.EarnedReward != nil {
			reward = m.EarnedReward.String()
		}
		attrs = append(attrs, slog.Group(m.Key.Short(),
			slog.Uint64("shard", uint64(m.ShardID)),
			slog.String("earnedReward", reward)))
	}
	r.Log.Info("BLS key metrics", append([]any{slog.String("validator", validator)}, attrs...)...)
}

// After logs the removed keys and the after snapshot.
func (r LogReporter) After(report *interfaces.CleanseReport) {
	r.Log.Info("Cleansed following BLS keys",
		slog.String("session", report.SessionID),
		slog.Any("keys", report.Removed))
	for _, f := range report.Failures {
		r.Log.Warn("BLS key could not be removed", slog.String("key", f.Key.String()), slog.String("err", f.Error))
	}
	r.Log.Info("Keys on validator (after cleanse)",
		slog.String("validator", report.Validator),
		slog.Any("keys", report.After))
}

// MultiReporter fans snapshots out to several reporters in order.
type MultiReporter []interfaces.Reporter

func (m MultiReporter) Before(validator string, onChain []interfaces.BLSKeyID, local []interfaces.BLSKeyID) {
	for _, r := range m {
		r.Before(validator, onChain, local)
	}
}

func (m MultiReporter) Metrics(validator string, metrics *interfaces.MetricsBlock) {
	for _, r := range m {
		r.Metrics(validator, metrics)
	}
}

func (m MultiReporter) After(report *interfaces.CleanseReport) {
	for _, r := range m {
		r.After(report)
	}
}

var (
	_ interfaces.Reporter = NopReporter{}
	_ interfaces.Reporter = LogReporter{}
	_ interfaces.Reporter = MultiReporter{}
)
