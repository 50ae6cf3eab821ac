package interfaces

import (
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"
)

// BLSKeyID identifies a BLS public key. It is an opaque value: it is never
// decoded, trimmed or interpreted as a number.
type BLSKeyID string

// String returns the key as registered on-chain.
func (k BLSKeyID) String() string {
	return string(k)
}

// Short returns an abbreviated form suitable for log lines and prompts.
func (k BLSKeyID) Short() string {
	if len(k) <= 16 {
		return string(k)
	}
	return string(k[:8]) + "…" + string(k[len(k)-8:])
}

// KeySet is an immutable set of BLS keys with a stable iteration order
// (the order the keys were supplied in).
type KeySet struct {
	keys  []BLSKeyID
	index map[BLSKeyID]struct{}
}

// NewKeySet creates a key set, dropping duplicates while keeping the first occurrence.
func NewKeySet(keys ...BLSKeyID) KeySet {
	ks := KeySet{index: make(map[BLSKeyID]struct{}, len(keys))}
	for _, k := range keys {
		if _, ok := ks.index[k]; ok {
			continue
		}
		ks.index[k] = struct{}{}
		ks.keys = append(ks.keys, k)
	}
	return ks
}

// NewKeySetFromStrings is a convenience wrapper around NewKeySet.
func NewKeySetFromStrings(keys []string) KeySet {
	ids := make([]BLSKeyID, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, BLSKeyID(k))
	}
	return NewKeySet(ids...)
}

// Contains reports whether key is a member of the set.
func (ks KeySet) Contains(key BLSKeyID) bool {
	_, ok := ks.index[key]
	return ok
}

// Len returns the number of keys in the set.
func (ks KeySet) Len() int {
	return len(ks.keys)
}

// Keys returns a copy of the keys in insertion order.
func (ks KeySet) Keys() []BLSKeyID {
	return slices.Clone(ks.keys)
}

// Sorted returns a copy of the keys in lexicographic order.
func (ks KeySet) Sorted() []BLSKeyID {
	sorted := slices.Clone(ks.keys)
	slices.Sort(sorted)
	return sorted
}

// ValidatorRecord is the on-chain state of a validator as returned by the chain.
// BLSKeys keeps the order returned by the chain.
type ValidatorRecord struct {
	Address string
	BLSKeys []BLSKeyID

	// Metrics is nil until the validator is elected.
	Metrics *MetricsBlock
}

// HasKey reports whether key is currently registered for the validator.
func (r *ValidatorRecord) HasKey(key BLSKeyID) bool {
	return slices.Contains(r.BLSKeys, key)
}

// MetricsBlock carries per-key performance for the current epoch.
type MetricsBlock struct {
	ByKey []KeyMetric `json:"by_key"`
}

// KeyMetric is the current-epoch performance of a single BLS key.
type KeyMetric struct {
	Key          BLSKeyID `json:"key"`
	ShardID      uint32   `json:"shard_id"`
	EarnedReward *big.Int `json:"earned_reward"`
}

// EarnedNothing reports whether the key earned exactly zero in the current epoch.
// An unknown reward is never treated as zero.
func (m KeyMetric) EarnedNothing() bool {
	return m.EarnedReward != nil && m.EarnedReward.Sign() == 0
}

// NodeMetadata holds the chain parameters the cleanse engine needs.
type NodeMetadata struct {
	BlocksPerEpoch uint64
	ShardID        uint32
}

// Header is the subset of the latest block header read by the engine.
type Header struct {
	BlockNumber uint64
	Epoch       uint64
	ShardID     uint32
}

// Policy selects which keys a cleanse removes.
type Policy string

const (
	// HardCleanse removes every on-chain key not controlled by this node.
	HardCleanse Policy = "hard"
	// ShardCleanse removes every on-chain key whose shard differs from this node's shard.
	ShardCleanse Policy = "keep-shard"
	// RewardCleanse removes every on-chain key that earned nothing in the current epoch.
	RewardCleanse Policy = "reward"
)

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case HardCleanse, ShardCleanse, RewardCleanse:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// String returns the policy name.
func (p Policy) String() string {
	return string(p)
}

// RemovalDecision records what happened to a single candidate.
type RemovalDecision struct {
	Key       BLSKeyID `json:"key"`
	Reason    string   `json:"reason"`
	Confirmed bool     `json:"confirmed"`
}

// RemovalFailure records a candidate whose removal failed without aborting the pass.
type RemovalFailure struct {
	Key   BLSKeyID `json:"key"`
	Error string   `json:"error"`
}

// CleanseReport summarises one cleanse session.
type CleanseReport struct {
	SessionID  string            `json:"session_id"`
	Validator  string            `json:"validator"`
	Policy     Policy            `json:"policy"`
	LocalKeys  []BLSKeyID        `json:"local_keys"`
	Before     []BLSKeyID        `json:"before"`
	After      []BLSKeyID        `json:"after"`
	Removed    []BLSKeyID        `json:"removed"`
	Decisions  []RemovalDecision `json:"decisions"`
	Failures   []RemovalFailure  `json:"failures,omitempty"`
	Metrics    *MetricsBlock     `json:"metrics,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
