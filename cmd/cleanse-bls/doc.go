// Command cleanse-bls removes BLS keys from this node's validator.
//
// Exactly one policy is applied per run:
//
//   - default: remove keys that earned no reward in the current epoch. If the
//     validator is not elected the tool offers to wait for the election, then
//     waits for the epoch to pass its first blocks before reading rewards.
//   - --hard: remove every key this node does not run.
//   - --keep-shard: remove every key on a different shard than this node.
//
// Every removal is confirmed on the terminal unless --yes is given, or
// remotely with --confirm-listen-addr (see package httpserver).
//
// Node settings are read from AutoNode config files or flags:
//
//	cleanse-bls --validator-config ~/.hmy/validator_config.json \
//	    --node-config ~/.hmy/node_config.json --keep-shard
//
//	cleanse-bls --validator-addr one1... --endpoint http://localhost:9500 \
//	    --bls-key 0a1b... --report-storage file:///var/lib/bls-cleanse --yes
//
// Finished reports can be archived with --report-storage and printed again:
//
//	cleanse-bls report --report-storage file:///var/lib/bls-cleanse <report-id>
//
// The exit status is 255 when the configured address is not a validator. A
// validator that is not elected (and the operator chose not to wait) exits 0.
package main
