package cleanse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/autonode/bls-cleanse/interfaces"
)

// Request describes one policy pass.
type Request struct {
	Policy      interfaces.Policy
	OnChainKeys []interfaces.BLSKeyID
	LocalKeys   interfaces.KeySet
	AutoConfirm bool

	// Metrics is required by the reward policy and ignored by the others.
	Metrics *interfaces.MetricsBlock
}

// Candidate is a key selected for removal by a policy, pending confirmation.
type Candidate struct {
	Key    interfaces.BLSKeyID
	Reason string
}

// Prompt is the question put to the operator for this candidate.
func (c Candidate) Prompt() string {
	return fmt.Sprintf("Remove BLS key %s: %s?", c.Reason, c.Key)
}

// Pass is the outcome of a policy pass. Removed lists keys in removal call order.
type Pass struct {
	Candidates []Candidate
	Decisions  []interfaces.RemovalDecision
	Removed    []interfaces.BLSKeyID
	Races      []*interfaces.StateRaceError
}

// PolicyEngine selects removal candidates and removes the confirmed ones.
type PolicyEngine struct {
	chain     interfaces.ChainQuery
	confirmer interfaces.Confirmer
	log       *slog.Logger
}

// NewPolicyEngine creates a policy engine.
func NewPolicyEngine(chain interfaces.ChainQuery, confirmer interfaces.Confirmer, log *slog.Logger) *PolicyEngine {
	return &PolicyEngine{chain: chain, confirmer: confirmer, log: log}
}

// Candidates evaluates the request's policy without touching the chain state.
func (e *PolicyEngine) Candidates(ctx context.Context, req Request) ([]Candidate, error) {
	switch req.Policy {
	case interfaces.HardCleanse:
		if req.LocalKeys.Len() == 0 {
			return nil, interfaces.ErrNoLocalKeys
		}
		return hardCandidates(req.OnChainKeys, req.LocalKeys), nil
	case interfaces.ShardCleanse:
		return e.shardCandidates(ctx, req.OnChainKeys, req.LocalKeys)
	case interfaces.RewardCleanse:
		return rewardCandidates(req.OnChainKeys, req.LocalKeys, req.Metrics)
	default:
		return nil, fmt.Errorf("%w: %q", interfaces.ErrUnknownPolicy, req.Policy)
	}
}

// Cleanse runs one policy pass. Candidates are processed in the order the chain
// listed them; each is confirmed (unless AutoConfirm is set) and then removed.
//
// A candidate that is gone by the time it is removed is recorded in Pass.Races
// and the pass continues. Any other failure stops the pass; the partial Pass is
// returned along with the error.
func (e *PolicyEngine) Cleanse(ctx context.Context, req Request) (*Pass, error) {
	pass := &Pass{}

	candidates, err := e.Candidates(ctx, req)
	if err != nil {
		return pass, err
	}
	pass.Candidates = candidates

	e.log.Info("Evaluated cleanse policy",
		slog.String("policy", req.Policy.String()),
		slog.Int("onChain", len(req.OnChainKeys)),
		slog.Int("candidates", len(candidates)))

	for _, c := range candidates {
		confirmed := req.AutoConfirm
		if !confirmed {
			confirmed, err = e.confirmer.Confirm(ctx, c.Prompt())
			if err != nil {
				return pass, fmt.Errorf("confirmation for BLS key %s: %w", c.Key, err)
			}
		}

		pass.Decisions = append(pass.Decisions, interfaces.RemovalDecision{
			Key:       c.Key,
			Reason:    c.Reason,
			Confirmed: confirmed,
		})
		if !confirmed {
			e.log.Info("Keeping BLS key", slog.String("key", c.Key.String()))
			continue
		}

		if err := e.chain.RemoveKey(ctx, c.Key); err != nil {
			if errors.Is(err, interfaces.ErrKeyNotRegistered) {
				race := &interfaces.StateRaceError{Key: c.Key, Err: err}
				e.log.Warn("BLS key vanished before removal", slog.String("key", c.Key.String()), "err", race)
				pass.Races = append(pass.Races, race)
				continue
			}
			return pass, fmt.Errorf("failed to remove BLS key %s: %w", c.Key, err)
		}

		e.log.Info("Removed BLS key", slog.String("key", c.Key.String()), slog.String("reason", c.Reason))
		pass.Removed = append(pass.Removed, c.Key)
	}

	return pass, nil
}

func hardCandidates(onChain []interfaces.BLSKeyID, local interfaces.KeySet) []Candidate {
	var candidates []Candidate
	seen := make(map[interfaces.BLSKeyID]struct{}, len(onChain))
	for _, key := range onChain {
		if _, dup := seen[key]; dup || local.Contains(key) {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, Candidate{Key: key, Reason: "that is not used by this node"})
	}
	return candidates
}

// localShard resolves the shard of this node. Every local key is looked up in
// lexicographic order and all of them must agree.
func (e *PolicyEngine) localShard(ctx context.Context, local interfaces.KeySet) (uint32, error) {
	keys := local.Sorted()
	if len(keys) == 0 {
		return 0, interfaces.ErrNoLocalKeys
	}

	var shard uint32
	for i, key := range keys {
		s, err := e.chain.GetShardForKey(ctx, key)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			shard = s
			continue
		}
		if s != shard {
			return 0, fmt.Errorf("%w: %s is on shard %d, %s is on shard %d", interfaces.ErrLocalShardMismatch, keys[0], shard, key, s)
		}
	}
	return shard, nil
}

func (e *PolicyEngine) shardCandidates(ctx context.Context, onChain []interfaces.BLSKeyID, local interfaces.KeySet) ([]Candidate, error) {
	shard, err := e.localShard(ctx, local)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	seen := make(map[interfaces.BLSKeyID]struct{}, len(onChain))
	for _, key := range onChain {
		if _, dup := seen[key]; dup || local.Contains(key) {
			continue
		}
		seen[key] = struct{}{}

		keyShard, err := e.chain.GetShardForKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if keyShard != shard {
			candidates = append(candidates, Candidate{Key: key, Reason: fmt.Sprintf("not for shard %d", shard)})
		}
	}
	return candidates, nil
}

func rewardCandidates(onChain []interfaces.BLSKeyID, local interfaces.KeySet, metrics *interfaces.MetricsBlock) ([]Candidate, error) {
	if metrics == nil {
		return nil, interfaces.ErrMetricsUnavailable
	}

	registered := interfaces.NewKeySet(onChain...)
	var candidates []Candidate
	seen := make(map[interfaces.BLSKeyID]struct{}, len(metrics.ByKey))
	for _, m := range metrics.ByKey {
		if !m.EarnedNothing() {
			continue
		}
		if _, dup := seen[m.Key]; dup || local.Contains(m.Key) || !registered.Contains(m.Key) {
			continue
		}
		seen[m.Key] = struct{}{}
		candidates = append(candidates, Candidate{Key: m.Key, Reason: "that earned zero rewards"})
	}
	return candidates, nil
}
