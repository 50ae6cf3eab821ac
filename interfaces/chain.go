package interfaces

import "context"

// ChainQuery is the capability the cleanse engine needs from the chain.
// Implementations perform blocking round trips; retries, if any, happen below
// this boundary.
type ChainQuery interface {
	// GetValidatorInfo fetches the current on-chain record of a validator.
	GetValidatorInfo(ctx context.Context, address string) (*ValidatorRecord, error)

	// GetNodeMetadata returns chain parameters reported by the node.
	GetNodeMetadata(ctx context.Context) (*NodeMetadata, error)

	// GetLatestHeader returns the latest block header known to the node.
	GetLatestHeader(ctx context.Context) (*Header, error)

	// GetShardForKey returns the shard a BLS key belongs to.
	GetShardForKey(ctx context.Context, key BLSKeyID) (uint32, error)

	// RemoveKey removes a BLS key from the configured validator.
	// Returns ErrKeyNotRegistered if the key is no longer registered.
	RemoveKey(ctx context.Context, key BLSKeyID) error

	// ListAllValidators returns the addresses of all current validators.
	ListAllValidators(ctx context.Context) ([]string, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Reporter receives structured snapshots of a cleanse session.
type Reporter interface {
	// Before is emitted once the validator is verified, before any policy runs.
	Before(validator string, onChain []BLSKeyID, local []BLSKeyID)

	// Metrics is emitted with the reward metrics snapshot the reward policy decides on.
	Metrics(validator string, metrics *MetricsBlock)

	// After is emitted with the final report.
	After(report *CleanseReport)
}
