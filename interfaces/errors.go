package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrValidatorNotFound is returned when the configured validator address is not
	// among the chain's current validators. It is a configuration error and is never retried.
	ErrValidatorNotFound = errors.New("validator not found on chain")

	// ErrValidatorNotElected is returned when reward metrics are unavailable and the
	// operator declined to wait for election. No keys are removed in that case.
	ErrValidatorNotElected = errors.New("validator is not elected")

	// ErrElectionWaitExceeded is returned when a bounded election wait runs out.
	ErrElectionWaitExceeded = errors.New("gave up waiting for validator election")

	// ErrKeyNotRegistered is returned by ChainQuery.RemoveKey when the key is no
	// longer registered for the validator, i.e. another actor removed it first.
	ErrKeyNotRegistered = errors.New("BLS key is not registered for validator")

	// ErrEpochTooShort is returned when the chain's blocks-per-epoch does not exceed
	// the safe margin, which the epoch synchronizer requires.
	ErrEpochTooShort = errors.New("blocks per epoch must exceed the safe margin")

	// ErrLocalShardMismatch is returned when this node's keys do not all belong to the same shard.
	ErrLocalShardMismatch = errors.New("local BLS keys span multiple shards")

	// ErrNoLocalKeys is returned when a policy needs at least one local key.
	ErrNoLocalKeys = errors.New("no local BLS keys configured")

	// ErrMetricsUnavailable is returned when the reward policy runs without metrics.
	ErrMetricsUnavailable = errors.New("validator metrics unavailable")

	// ErrUnknownPolicy is returned for policy names other than hard, keep-shard and reward.
	ErrUnknownPolicy = errors.New("unknown cleanse policy")
)

// StateRaceError reports a candidate that disappeared from the chain between
// candidate selection and its removal call.
type StateRaceError struct {
	Key BLSKeyID
	Err error
}

func (e *StateRaceError) Error() string {
	return fmt.Sprintf("state race on BLS key %s: %v", e.Key, e.Err)
}

func (e *StateRaceError) Unwrap() error {
	return e.Err
}
