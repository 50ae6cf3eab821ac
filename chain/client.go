// Package chain provides access to a Harmony node for the BLS key cleanse engine.
// Reads go through the node's hmyv2 JSON-RPC API; shard lookups and key removals
// go through the hmy CLI.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/autonode/bls-cleanse/interfaces"
)

// RPC method names of the hmyv2 namespace.
const (
	methodValidatorInformation = "hmyv2_getValidatorInformation"
	methodNodeMetadata         = "hmyv2_getNodeMetadata"
	methodLatestHeader         = "hmyv2_latestHeader"
	methodAllValidators        = "hmyv2_getAllValidatorAddresses"
)

// HarmonyClient implements interfaces.ChainQuery for a single validator.
type HarmonyClient struct {
	rpc       *rpc.Client
	cli       *HmyCLI
	validator string
	timeout   time.Duration
	log       *slog.Logger
}

// Config holds the connection settings of a HarmonyClient.
type Config struct {
	Endpoint         string
	ValidatorAddress string
	HmyBinary        string
	PassphraseFile   string

	// RPCTimeout bounds every JSON-RPC round trip. Zero disables the bound.
	RPCTimeout time.Duration
}

// Dial connects to the node's JSON-RPC endpoint.
func Dial(ctx context.Context, cfg Config, log *slog.Logger) (*HarmonyClient, error) {
	rpcClient, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Endpoint, err)
	}

	cli := NewHmyCLI(cfg.HmyBinary, cfg.Endpoint, cfg.PassphraseFile, log)
	client := NewHarmonyClient(rpcClient, cli, cfg.ValidatorAddress, log)
	client.timeout = cfg.RPCTimeout
	return client, nil
}

// NewHarmonyClient creates a client from an established RPC connection.
func NewHarmonyClient(rpcClient *rpc.Client, cli *HmyCLI, validator string, log *slog.Logger) *HarmonyClient {
	return &HarmonyClient{
		rpc:       rpcClient,
		cli:       cli,
		validator: validator,
		log:       log,
	}
}

// Close releases the RPC connection.
func (c *HarmonyClient) Close() {
	c.rpc.Close()
}

func (c *HarmonyClient) call(ctx context.Context, result any, method string, args ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	c.log.Debug("rpc call",
		slog.String("method", method),
		slog.Duration("duration", time.Since(start)),
		"err", err)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// GetValidatorInfo fetches the validator record, including metrics when elected.
func (c *HarmonyClient) GetValidatorInfo(ctx context.Context, address string) (*interfaces.ValidatorRecord, error) {
	var info validatorInformation
	if err := c.call(ctx, &info, methodValidatorInformation, address); err != nil {
		return nil, err
	}

	record := info.toRecord()
	if record.Address == "" {
		record.Address = address
	}
	return record, nil
}

// GetNodeMetadata returns blocks-per-epoch and the node's shard.
func (c *HarmonyClient) GetNodeMetadata(ctx context.Context) (*interfaces.NodeMetadata, error) {
	var md nodeMetadata
	if err := c.call(ctx, &md, methodNodeMetadata); err != nil {
		return nil, err
	}
	return &interfaces.NodeMetadata{BlocksPerEpoch: md.BlocksPerEpoch, ShardID: md.ShardID}, nil
}

// GetLatestHeader returns the node's latest header.
func (c *HarmonyClient) GetLatestHeader(ctx context.Context) (*interfaces.Header, error) {
	var h latestHeader
	if err := c.call(ctx, &h, methodLatestHeader); err != nil {
		return nil, err
	}
	return &interfaces.Header{BlockNumber: h.BlockNumber, Epoch: h.Epoch, ShardID: h.ShardID}, nil
}

// ListAllValidators returns the addresses of every validator known to the chain.
func (c *HarmonyClient) ListAllValidators(ctx context.Context) ([]string, error) {
	var addrs []string
	if err := c.call(ctx, &addrs, methodAllValidators); err != nil {
		return nil, err
	}
	return addrs, nil
}

// GetShardForKey delegates to `hmy utility shard-for-bls`.
func (c *HarmonyClient) GetShardForKey(ctx context.Context, key interfaces.BLSKeyID) (uint32, error) {
	shard, err := c.cli.ShardForKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("shard lookup for %s: %w", key.Short(), err)
	}
	return shard, nil
}

// RemoveKey removes key from the configured validator. The validator record is
// re-read first so that a key already removed by someone else surfaces as
// ErrKeyNotRegistered instead of a failed transaction.
func (c *HarmonyClient) RemoveKey(ctx context.Context, key interfaces.BLSKeyID) error {
	record, err := c.GetValidatorInfo(ctx, c.validator)
	if err != nil {
		return err
	}
	if !record.HasKey(key) {
		return fmt.Errorf("%w: %s", interfaces.ErrKeyNotRegistered, key)
	}

	if err := c.cli.RemoveBLSKey(ctx, c.validator, key); err != nil {
		return fmt.Errorf("remove BLS key %s: %w", key.Short(), err)
	}
	return nil
}
