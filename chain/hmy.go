package chain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/autonode/bls-cleanse/interfaces"
)

// CommandRunner executes an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and includes stderr in the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// HmyCLI wraps the operations that go through the hmy binary: shard lookup for a
// BLS key and the edit-validator transaction removing a key. The key is passed
// through verbatim; shard assignment is never derived from the key text here.
type HmyCLI struct {
	Binary         string
	Endpoint       string
	PassphraseFile string
	Runner         CommandRunner
	Log            *slog.Logger
}

// NewHmyCLI creates a CLI wrapper using the hmy binary found at binary (or on PATH).
func NewHmyCLI(binary, endpoint, passphraseFile string, log *slog.Logger) *HmyCLI {
	if binary == "" {
		binary = "hmy"
	}
	return &HmyCLI{
		Binary:         binary,
		Endpoint:       endpoint,
		PassphraseFile: passphraseFile,
		Runner:         ExecRunner{},
		Log:            log,
	}
}

// ShardForKey runs `hmy utility shard-for-bls`.
func (c *HmyCLI) ShardForKey(ctx context.Context, key interfaces.BLSKeyID) (uint32, error) {
	out, err := c.Runner.Run(ctx, c.Binary, "utility", "shard-for-bls", key.String(), "--node", c.Endpoint)
	if err != nil {
		return 0, err
	}
	return parseShardForBLS(out)
}

// RemoveBLSKey sends an edit-validator transaction removing key from the validator.
func (c *HmyCLI) RemoveBLSKey(ctx context.Context, validator string, key interfaces.BLSKeyID) error {
	args := []string{
		"--node", c.Endpoint,
		"staking", "edit-validator",
		"--validator-addr", validator,
		"--remove-bls-key", key.String(),
	}
	if c.PassphraseFile != "" {
		args = append(args, "--passphrase-file", c.PassphraseFile)
	}

	out, err := c.Runner.Run(ctx, c.Binary, args...)
	if err != nil {
		return err
	}

	c.Log.Debug("edit-validator submitted",
		slog.String("validator", validator),
		slog.String("key", key.Short()),
		slog.String("output", strings.TrimSpace(string(out))))
	return nil
}
