// Package interfaces defines the core types and ports of the BLS key cleanse tool,
// separating contracts from their implementations.
//
// # Ports
//
// ChainQuery: read access to the validator record, node metadata, latest header,
// shard lookup and validator list, plus the single mutation the tool performs
// (removing a BLS key from the validator).
//
// Confirmer: asks the operator a yes/no question. Implementations cover the
// terminal, scripted answers for tests, and a remote HTTP approval flow.
//
// Reporter: receives structured snapshots at the well-defined points of a
// cleanse session (before the policy runs, once reward metrics are read, after
// the policy ran).
//
// # Storage Interfaces
//
// StorageBackend: content-addressed storage for archived cleanse reports across
// file, S3 and IPFS backends.
//
// # Types
//
//   - BLSKeyID: opaque public key identifier, compared by exact string equality
//   - KeySet: the keys controlled by the running node
//   - ValidatorRecord / MetricsBlock: on-chain validator state, fetched fresh per query
//   - RemovalDecision / CleanseReport: per-session results, never persisted by the engine
package interfaces
