// Package cleanse implements the BLS key cleanse decision engine.
//
// A Session verifies that the configured address is a validator, snapshots its
// registered keys, and hands the key set to the PolicyEngine under exactly one
// policy:
//
//   - hard: keep only the keys of this node
//   - keep-shard: keep only keys on this node's shard
//   - reward: keep only keys that earned a reward in the current epoch
//
// The reward policy needs validator metrics, which exist only once the
// validator is elected. The session can wait for election (a fixed-interval
// poll with no upper bound unless MaxElectionWait is set), and always waits
// for the EpochSynchronizer before reading the metrics it decides on, because
// the first SafeMargin blocks of an epoch do not reflect reward bookkeeping yet.
//
// Every candidate is confirmed through an interfaces.Confirmer unless the
// session runs with auto-confirm. Removals are sequential; a key that vanished
// from the chain before its removal is reported as an
// interfaces.StateRaceError and the pass moves on.
package cleanse
