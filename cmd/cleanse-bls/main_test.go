package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/autonode/bls-cleanse/interfaces"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("cleanse-bls", flag.ContinueOnError)
	for _, f := range cleanseFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(&cli.App{}, set, nil)
}

func TestSelectPolicy(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected interfaces.Policy
		wantErr  bool
	}{
		{name: "reward by default", expected: interfaces.RewardCleanse},
		{name: "hard", args: []string{"--hard"}, expected: interfaces.HardCleanse},
		{name: "keep shard", args: []string{"--keep-shard"}, expected: interfaces.ShardCleanse},
		{name: "hard and keep shard", args: []string{"--hard", "--keep-shard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := selectPolicy(newContext(t, tt.args...))
			if tt.wantErr {
				assert.ErrorContains(t, err, "mutually exclusive")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, policy)
		})
	}
}

func TestExitError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transient := errors.New("rpc timeout")

	tests := []struct {
		name     string
		runErr   error
		exitCode int
		expected error
	}{
		{name: "success", runErr: nil},
		{name: "not elected", runErr: fmt.Errorf("wrapped: %w", interfaces.ErrValidatorNotElected)},
		{name: "validator not found", runErr: fmt.Errorf("%w: one1abc", interfaces.ErrValidatorNotFound), exitCode: exitValidatorNotFound},
		{name: "other failure", runErr: transient, exitCode: 1, expected: transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitError(logger, "one1abc", tt.runErr)
			if tt.exitCode == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var exitCoder cli.ExitCoder
			if errors.As(err, &exitCoder) {
				assert.Equal(t, tt.exitCode, exitCoder.ExitCode())
				return
			}
			assert.Equal(t, 1, tt.exitCode)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
