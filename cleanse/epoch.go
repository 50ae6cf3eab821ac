package cleanse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/autonode/bls-cleanse/interfaces"
)

// SafeMargin is the number of blocks at the start of an epoch during which
// per-key reward metrics are not yet reliable.
const SafeMargin uint64 = 6

// DefaultEpochPollInterval is the delay between header samples while inside the safe margin.
const DefaultEpochPollInterval = time.Second

var errInsideMargin = errors.New("block height inside epoch safe margin")

// EpochSynchronizer blocks until the chain height leaves the first SafeMargin
// blocks of the current epoch.
//
// The chain must be configured with more than SafeMargin blocks per epoch;
// otherwise WaitForSafeWindow fails with interfaces.ErrEpochTooShort.
type EpochSynchronizer struct {
	chain    interfaces.ChainQuery
	margin   uint64
	interval time.Duration
	log      *slog.Logger
}

// NewEpochSynchronizer creates a synchronizer polling every interval. A zero
// interval polls without delay.
func NewEpochSynchronizer(chain interfaces.ChainQuery, interval time.Duration, log *slog.Logger) *EpochSynchronizer {
	return &EpochSynchronizer{
		chain:    chain,
		margin:   SafeMargin,
		interval: interval,
		log:      log,
	}
}

// WaitForSafeWindow returns the first sampled header whose height modulo
// blocks-per-epoch is at least the safe margin. It only gives up when ctx is
// done or the chain returns an error.
func (s *EpochSynchronizer) WaitForSafeWindow(ctx context.Context) (*interfaces.Header, error) {
	md, err := s.chain.GetNodeMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read node metadata: %w", err)
	}

	blocksPerEpoch := md.BlocksPerEpoch
	if blocksPerEpoch <= s.margin {
		return nil, fmt.Errorf("%w: blocks-per-epoch=%d safe-margin=%d", interfaces.ErrEpochTooShort, blocksPerEpoch, s.margin)
	}

	var safe *interfaces.Header
	polls := 0
	op := func() error {
		header, err := s.chain.GetLatestHeader(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("could not read latest header: %w", err))
		}
		polls++

		if header.BlockNumber%blocksPerEpoch < s.margin {
			if polls == 1 {
				s.log.Info("Waiting for epoch to pass safe margin",
					slog.Uint64("block", header.BlockNumber),
					slog.Uint64("blocksPerEpoch", blocksPerEpoch),
					slog.Uint64("safeMargin", s.margin))
			}
			return errInsideMargin
		}

		safe = header
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(s.interval), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	s.log.Debug("Epoch safe window reached",
		slog.Uint64("block", safe.BlockNumber),
		slog.Int("polls", polls))
	return safe, nil
}
