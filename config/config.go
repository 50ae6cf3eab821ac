// Package config resolves the validator and node settings of a cleanse run.
//
// Settings come from AutoNode style JSON files and can be overridden
// field by field with command line values.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/autonode/bls-cleanse/interfaces"
)

var (
	// ErrMissingValidator is returned when no validator address is configured.
	ErrMissingValidator = errors.New("validator address is not configured")

	// ErrMissingEndpoint is returned when no RPC endpoint is configured.
	ErrMissingEndpoint = errors.New("node endpoint is not configured")
)

// ValidatorFile is the validator configuration file written by AutoNode.
type ValidatorFile struct {
	ValidatorAddr string `json:"validator-addr"`
}

// NodeFile is the node configuration file written by AutoNode.
type NodeFile struct {
	Endpoint      string   `json:"endpoint"`
	PublicBLSKeys []string `json:"public-bls-keys"`
}

// Config holds the resolved settings.
type Config struct {
	// Validator is the one1... address of the validator being cleansed.
	Validator string
	// Endpoint is the RPC endpoint used for chain queries and hmy commands.
	Endpoint string
	// LocalKeys are the BLS public keys run by this node.
	LocalKeys []string
}

// Sources names the files to read and the values overriding them.
// Empty paths and empty values are ignored.
type Sources struct {
	ValidatorConfigPath string
	NodeConfigPath      string

	Validator string
	Endpoint  string
	LocalKeys []string
}

// Load resolves the configuration from src.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}

	if src.ValidatorConfigPath != "" {
		var vf ValidatorFile
		if err := readJSON(src.ValidatorConfigPath, &vf); err != nil {
			return nil, err
		}
		cfg.Validator = vf.ValidatorAddr
	}

	if src.NodeConfigPath != "" {
		var nf NodeFile
		if err := readJSON(src.NodeConfigPath, &nf); err != nil {
			return nil, err
		}
		cfg.Endpoint = nf.Endpoint
		cfg.LocalKeys = nf.PublicBLSKeys
	}

	if src.Validator != "" {
		cfg.Validator = src.Validator
	}
	if src.Endpoint != "" {
		cfg.Endpoint = src.Endpoint
	}
	if len(src.LocalKeys) > 0 {
		cfg.LocalKeys = src.LocalKeys
	}

	cfg.Validator = strings.TrimSpace(cfg.Validator)
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.LocalKeys = trimKeys(cfg.LocalKeys)

	if cfg.Validator == "" {
		return nil, ErrMissingValidator
	}
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	// Without local keys every policy would treat this node's own key as foreign.
	if len(cfg.LocalKeys) == 0 {
		return nil, interfaces.ErrNoLocalKeys
	}
	return cfg, nil
}

func trimKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// KeySet returns the local keys as a key set.
func (c *Config) KeySet() interfaces.KeySet {
	return interfaces.NewKeySetFromStrings(c.LocalKeys)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}
