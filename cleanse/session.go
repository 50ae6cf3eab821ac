package cleanse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/autonode/bls-cleanse/interfaces"
)

// DefaultElectionPollInterval is the delay between validator record reads while
// waiting for the validator to be elected.
const DefaultElectionPollInterval = 8 * time.Second

// afterSnapshotTimeout bounds the final on-chain read of an interrupted session.
const afterSnapshotTimeout = 30 * time.Second

var errNotElectedYet = errors.New("validator has no metrics yet")

// Config holds the fixed inputs of a cleanse session.
type Config struct {
	Validator string
	LocalKeys interfaces.KeySet

	// ElectionPollInterval defaults to DefaultElectionPollInterval.
	ElectionPollInterval time.Duration

	// MaxElectionWait bounds the wait for election. Zero waits until the
	// validator is elected or the context is canceled.
	MaxElectionWait time.Duration

	// EpochPollInterval is the header sampling delay of the epoch synchronizer.
	EpochPollInterval time.Duration
}

// Session runs cleanse passes for one validator.
type Session struct {
	cfg       Config
	chain     interfaces.ChainQuery
	confirmer interfaces.Confirmer
	reporter  interfaces.Reporter
	engine    *PolicyEngine
	epoch     *EpochSynchronizer
	log       *slog.Logger
	now       func() time.Time
}

// NewSession creates a session. reporter may be nil.
func NewSession(cfg Config, chain interfaces.ChainQuery, confirmer interfaces.Confirmer, reporter interfaces.Reporter, log *slog.Logger) *Session {
	if cfg.ElectionPollInterval <= 0 {
		cfg.ElectionPollInterval = DefaultElectionPollInterval
	}
	if cfg.EpochPollInterval < 0 {
		cfg.EpochPollInterval = 0
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	return &Session{
		cfg:       cfg,
		chain:     chain,
		confirmer: confirmer,
		reporter:  reporter,
		engine:    NewPolicyEngine(chain, confirmer, log),
		epoch:     NewEpochSynchronizer(chain, cfg.EpochPollInterval, log),
		log:       log,
		now:       time.Now,
	}
}

// Run verifies the validator, applies policy and reports the outcome.
//
// A validator missing from the chain's validator list fails with
// interfaces.ErrValidatorNotFound and no report. Every other outcome returns a
// report whose Before and After snapshots were read from the chain; the error
// (if any) tells why the pass ended early. Keys removed before such an error
// stay removed and are listed in the report.
func (s *Session) Run(ctx context.Context, policy interfaces.Policy, autoConfirm bool) (*interfaces.CleanseReport, error) {
	policy, err := interfaces.ParsePolicy(policy.String())
	if err != nil {
		return nil, err
	}

	report := &interfaces.CleanseReport{
		SessionID: uuid.NewString(),
		Validator: s.cfg.Validator,
		Policy:    policy,
		LocalKeys: s.cfg.LocalKeys.Keys(),
		StartedAt: s.now(),
	}
	log := s.log.With(
		slog.String("session", report.SessionID),
		slog.String("validator", s.cfg.Validator),
		slog.String("policy", policy.String()))

	validators, err := s.chain.ListAllValidators(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list validators: %w", err)
	}
	if !slices.Contains(validators, s.cfg.Validator) {
		log.Error("Configured address is not a validator")
		return nil, fmt.Errorf("%w: %s", interfaces.ErrValidatorNotFound, s.cfg.Validator)
	}

	record, err := s.chain.GetValidatorInfo(ctx, s.cfg.Validator)
	if err != nil {
		return nil, fmt.Errorf("could not read validator information: %w", err)
	}
	report.Before = slices.Clone(record.BLSKeys)
	s.reporter.Before(s.cfg.Validator, report.Before, report.LocalKeys)

	req := Request{
		Policy:      policy,
		OnChainKeys: record.BLSKeys,
		LocalKeys:   s.cfg.LocalKeys,
		AutoConfirm: autoConfirm,
	}

	if policy == interfaces.RewardCleanse {
		record, err = s.prepareRewardPass(ctx, log, record, autoConfirm)
		if err != nil {
			return s.finish(ctx, report, err)
		}
		req.OnChainKeys = record.BLSKeys
		req.Metrics = record.Metrics
		report.Metrics = record.Metrics
		s.reporter.Metrics(s.cfg.Validator, record.Metrics)
	}

	pass, err := s.engine.Cleanse(ctx, req)
	if pass != nil {
		report.Decisions = pass.Decisions
		report.Removed = pass.Removed
		for _, race := range pass.Races {
			report.Failures = append(report.Failures, interfaces.RemovalFailure{Key: race.Key, Error: race.Error()})
		}
	}
	return s.finish(ctx, report, err)
}

// prepareRewardPass waits for election if needed, synchronizes to the epoch's
// safe window once, and returns the validator record to decide on.
func (s *Session) prepareRewardPass(ctx context.Context, log *slog.Logger, record *interfaces.ValidatorRecord, autoConfirm bool) (*interfaces.ValidatorRecord, error) {
	if record.Metrics == nil {
		log.Warn("Can not get current BLS key performance, validator is not elected")

		wait := autoConfirm
		if !wait {
			var err error
			wait, err = s.confirmer.Confirm(ctx, fmt.Sprintf("Validator %s is not elected. Wait for election?", s.cfg.Validator))
			if err != nil {
				return nil, fmt.Errorf("confirmation for election wait: %w", err)
			}
		}
		if !wait {
			return nil, interfaces.ErrValidatorNotElected
		}

		if err := s.awaitElection(ctx, log); err != nil {
			return nil, err
		}
	}

	if _, err := s.epoch.WaitForSafeWindow(ctx); err != nil {
		return nil, err
	}

	record, err := s.chain.GetValidatorInfo(ctx, s.cfg.Validator)
	if err != nil {
		return nil, fmt.Errorf("could not read validator metrics: %w", err)
	}
	if record.Metrics == nil {
		return nil, fmt.Errorf("%w: validator left the committee while waiting", interfaces.ErrMetricsUnavailable)
	}
	return record, nil
}

// awaitElection polls the validator record until metrics appear.
func (s *Session) awaitElection(ctx context.Context, log *slog.Logger) error {
	start := s.now()
	op := func() error {
		record, err := s.chain.GetValidatorInfo(ctx, s.cfg.Validator)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("could not read validator information: %w", err))
		}
		if record.Metrics != nil {
			return nil
		}
		if s.cfg.MaxElectionWait > 0 && s.now().Sub(start) >= s.cfg.MaxElectionWait {
			return backoff.Permanent(fmt.Errorf("%w after %s", interfaces.ErrElectionWaitExceeded, s.cfg.MaxElectionWait))
		}
		return errNotElectedYet
	}

	log.Info("Waiting for election", slog.Duration("pollInterval", s.cfg.ElectionPollInterval))
	b := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.ElectionPollInterval), ctx)
	err := backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		log.Debug("Validator not elected yet", slog.Duration("retryIn", next))
	})
	if err != nil {
		return err
	}

	log.Info("Validator elected", slog.Duration("waited", s.now().Sub(start)))
	return nil
}

// finish takes the after snapshot and emits the final report. The snapshot is
// taken even if ctx was canceled, so an interrupted session still reports what
// is on-chain.
func (s *Session) finish(ctx context.Context, report *interfaces.CleanseReport, runErr error) (*interfaces.CleanseReport, error) {
	afterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterSnapshotTimeout)
	defer cancel()

	record, err := s.chain.GetValidatorInfo(afterCtx, s.cfg.Validator)
	if err != nil {
		s.log.Error("Could not read validator keys after cleanse", "err", err)
		if runErr == nil {
			runErr = fmt.Errorf("could not read validator information after cleanse: %w", err)
		}
	} else {
		report.After = slices.Clone(record.BLSKeys)
	}

	report.FinishedAt = s.now()
	s.reporter.After(report)
	return report, runErr
}
