package chain

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/autonode/bls-cleanse/interfaces"
)

// MockChain is an in-memory implementation of interfaces.ChainQuery for a single
// validator. It simulates election (metrics appear after a number of reads),
// scripted block heights, and keys disappearing behind the engine's back.
type MockChain struct {
	mutex sync.Mutex

	validator      string
	validators     []string
	keys           []interfaces.BLSKeyID
	shards         map[interfaces.BLSKeyID]uint32
	rewards        map[interfaces.BLSKeyID]*big.Int
	blocksPerEpoch uint64
	heights        []uint64

	// electedAfter is the number of GetValidatorInfo calls that return no metrics.
	electedAfter int
	infoCalls    int
	headerCalls  int

	removeErrs   map[interfaces.BLSKeyID]error
	beforeRemove func(key interfaces.BLSKeyID)
	removeCalls  []interfaces.BLSKeyID
}

// NewMockChain creates a mock chain where validator is registered with keys.
// The validator is elected from the start and every key earned a reward of 1.
func NewMockChain(validator string, keys ...interfaces.BLSKeyID) *MockChain {
	m := &MockChain{
		validator:      validator,
		validators:     []string{validator},
		keys:           slices.Clone(keys),
		shards:         make(map[interfaces.BLSKeyID]uint32),
		rewards:        make(map[interfaces.BLSKeyID]*big.Int),
		blocksPerEpoch: 100,
		heights:        []uint64{50},
		removeErrs:     make(map[interfaces.BLSKeyID]error),
	}
	for _, k := range keys {
		m.rewards[k] = big.NewInt(1)
	}
	return m
}

// SetValidators replaces the list returned by ListAllValidators.
func (m *MockChain) SetValidators(addrs ...string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.validators = slices.Clone(addrs)
}

// SetShard assigns key to shard.
func (m *MockChain) SetShard(key interfaces.BLSKeyID, shard uint32) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.shards[key] = shard
}

// SetReward sets the current-epoch earned reward of key.
func (m *MockChain) SetReward(key interfaces.BLSKeyID, amount int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rewards[key] = big.NewInt(amount)
}

// SetElectedAfter makes the first n GetValidatorInfo calls return no metrics.
func (m *MockChain) SetElectedAfter(n int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.electedAfter = n
}

// SetEpoch configures blocks-per-epoch and the heights returned by successive
// GetLatestHeader calls. The last height repeats once the script is exhausted.
func (m *MockChain) SetEpoch(blocksPerEpoch uint64, heights ...uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.blocksPerEpoch = blocksPerEpoch
	if len(heights) > 0 {
		m.heights = slices.Clone(heights)
	}
}

// FailRemove makes RemoveKey return err for key.
func (m *MockChain) FailRemove(key interfaces.BLSKeyID, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.removeErrs[key] = err
}

// OnBeforeRemove registers a hook run (without the lock held) before every removal.
func (m *MockChain) OnBeforeRemove(fn func(key interfaces.BLSKeyID)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.beforeRemove = fn
}

// DropKey removes key from the validator as if another actor had done so.
func (m *MockChain) DropKey(key interfaces.BLSKeyID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.keys = slices.DeleteFunc(m.keys, func(k interfaces.BLSKeyID) bool { return k == key })
}

// Keys returns the keys currently registered.
func (m *MockChain) Keys() []interfaces.BLSKeyID {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.keys)
}

// RemoveCalls returns every key RemoveKey was called with, in call order.
func (m *MockChain) RemoveCalls() []interfaces.BLSKeyID {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.removeCalls)
}

// HeaderCalls returns the number of GetLatestHeader calls.
func (m *MockChain) HeaderCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.headerCalls
}

// InfoCalls returns the number of GetValidatorInfo calls.
func (m *MockChain) InfoCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.infoCalls
}

// GetValidatorInfo returns a fresh copy of the validator record.
func (m *MockChain) GetValidatorInfo(ctx context.Context, address string) (*interfaces.ValidatorRecord, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if address != m.validator {
		return nil, fmt.Errorf("validator %s: %w", address, interfaces.ErrValidatorNotFound)
	}

	m.infoCalls++
	record := &interfaces.ValidatorRecord{
		Address: m.validator,
		BLSKeys: slices.Clone(m.keys),
	}
	if m.infoCalls > m.electedAfter {
		record.Metrics = &interfaces.MetricsBlock{}
		for _, k := range m.keys {
			var earned *big.Int
			if r := m.rewards[k]; r != nil {
				earned = new(big.Int).Set(r)
			}
			record.Metrics.ByKey = append(record.Metrics.ByKey, interfaces.KeyMetric{
				Key:          k,
				ShardID:      m.shards[k],
				EarnedReward: earned,
			})
		}
	}
	return record, nil
}

// GetNodeMetadata returns the configured blocks-per-epoch.
func (m *MockChain) GetNodeMetadata(ctx context.Context) (*interfaces.NodeMetadata, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return &interfaces.NodeMetadata{BlocksPerEpoch: m.blocksPerEpoch}, nil
}

// GetLatestHeader returns the next scripted height.
func (m *MockChain) GetLatestHeader(ctx context.Context) (*interfaces.Header, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	idx := min(m.headerCalls, len(m.heights)-1)
	m.headerCalls++
	height := m.heights[idx]
	return &interfaces.Header{BlockNumber: height, Epoch: height / m.blocksPerEpoch}, nil
}

// GetShardForKey returns the shard assigned with SetShard (shard 0 by default).
func (m *MockChain) GetShardForKey(ctx context.Context, key interfaces.BLSKeyID) (uint32, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.shards[key], nil
}

// RemoveKey removes key from the validator.
func (m *MockChain) RemoveKey(ctx context.Context, key interfaces.BLSKeyID) error {
	m.mutex.Lock()
	hook := m.beforeRemove
	m.mutex.Unlock()
	if hook != nil {
		hook(key)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.removeCalls = append(m.removeCalls, key)
	if err := m.removeErrs[key]; err != nil {
		return err
	}
	if !slices.Contains(m.keys, key) {
		return fmt.Errorf("%w: %s", interfaces.ErrKeyNotRegistered, key)
	}
	m.keys = slices.DeleteFunc(m.keys, func(k interfaces.BLSKeyID) bool { return k == key })
	return nil
}

// ListAllValidators returns the configured validator list.
func (m *MockChain) ListAllValidators(ctx context.Context) ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.validators), nil
}
