package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonode/bls-cleanse/interfaces"
)

const (
	validatorJSON = `{"validator-addr": "one1pdv9lrdwl0rg5vglh4xtyrv3wjk3wsqket7zxy", "name": "harmony_autonode"}`
	nodeJSON      = `{
  "endpoint": "https://api.s0.t.hmny.io/",
  "network": "mainnet",
  "public-bls-keys": ["aa11", "bb22"]
}`
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	validatorPath := writeFile(t, "validator_config.json", validatorJSON)
	nodePath := writeFile(t, "node_config.json", nodeJSON)
	emptyKeysPath := writeFile(t, "node_empty.json", `{"endpoint": "http://localhost:9500", "public-bls-keys": []}`)

	tests := []struct {
		name     string
		src      Sources
		expected *Config
		err      error
	}{
		{
			name: "files only",
			src:  Sources{ValidatorConfigPath: validatorPath, NodeConfigPath: nodePath},
			expected: &Config{
				Validator: "one1pdv9lrdwl0rg5vglh4xtyrv3wjk3wsqket7zxy",
				Endpoint:  "https://api.s0.t.hmny.io/",
				LocalKeys: []string{"aa11", "bb22"},
			},
		},
		{
			name: "flags override files",
			src: Sources{
				ValidatorConfigPath: validatorPath,
				NodeConfigPath:      nodePath,
				Endpoint:            "http://localhost:9500",
				LocalKeys:           []string{"cc33"},
			},
			expected: &Config{
				Validator: "one1pdv9lrdwl0rg5vglh4xtyrv3wjk3wsqket7zxy",
				Endpoint:  "http://localhost:9500",
				LocalKeys: []string{"cc33"},
			},
		},
		{
			name: "flags only",
			src:  Sources{Validator: " one1abc ", Endpoint: "http://localhost:9500", LocalKeys: []string{" dd44 ", ""}},
			expected: &Config{
				Validator: "one1abc",
				Endpoint:  "http://localhost:9500",
				LocalKeys: []string{"dd44"},
			},
		},
		{
			name: "no local keys",
			src:  Sources{Validator: "one1abc", Endpoint: "http://localhost:9500"},
			err:  interfaces.ErrNoLocalKeys,
		},
		{
			name: "empty key list in node file",
			src: Sources{
				ValidatorConfigPath: validatorPath,
				NodeConfigPath:      emptyKeysPath,
			},
			err: interfaces.ErrNoLocalKeys,
		},
		{
			name: "missing validator",
			src:  Sources{NodeConfigPath: nodePath},
			err:  ErrMissingValidator,
		},
		{
			name: "missing endpoint",
			src:  Sources{ValidatorConfigPath: validatorPath},
			err:  ErrMissingEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.src)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestLoad_BadFiles(t *testing.T) {
	_, err := Load(Sources{ValidatorConfigPath: filepath.Join(t.TempDir(), "absent.json")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(Sources{NodeConfigPath: writeFile(t, "node.json", "{not json")})
	assert.ErrorContains(t, err, "could not parse config file")
}

func TestConfig_KeySet(t *testing.T) {
	cfg := &Config{LocalKeys: []string{"bb22", "aa11", "bb22"}}
	ks := cfg.KeySet()
	assert.Equal(t, 2, ks.Len())
	assert.True(t, ks.Contains("aa11"))
}
