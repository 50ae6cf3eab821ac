package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonode/bls-cleanse/interfaces"
)

func TestStorageBackendFactory_StorageBackendFor(t *testing.T) {
	dir := t.TempDir()
	factory := NewStorageBackendFactory(discardLogger())

	tests := []struct {
		name         string
		uri          string
		expectedName string
		expectedURI  string
	}{
		{
			name:         "file backend",
			uri:          "file://" + dir,
			expectedName: "file-" + filepath.Base(dir),
			expectedURI:  "file://" + dir,
		},
		{
			name:         "s3 backend with endpoint",
			uri:          "s3://reports/validators/?region=eu-west-1&endpoint=http://minio:9000&path-style=true",
			expectedName: "s3-reports",
			expectedURI:  "s3://reports/validators?region=eu-west-1&endpoint=http://minio:9000",
		},
		{
			name:         "ipfs backend with defaults",
			uri:          "ipfs://ipfs.local",
			expectedName: "ipfs-ipfs.local:5001",
			expectedURI:  "ipfs://ipfs.local:5001/bls-cleanse?timeout=30s",
		},
		{
			name:         "ipfs backend with base dir",
			uri:          "ipfs://127.0.0.1:5005/archive/?timeout=5s",
			expectedName: "ipfs-127.0.0.1:5005",
			expectedURI:  "ipfs://127.0.0.1:5005/archive?timeout=5s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := interfaces.NewStorageBackendLocation(tt.uri)
			require.NoError(t, err)

			backend, err := factory.StorageBackendFor(loc)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, backend.Name())
			assert.Equal(t, tt.expectedURI, backend.LocationURI())
		})
	}
}

func TestStorageBackendFactory_InvalidLocations(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	for _, uri := range []string{
		"s3:///prefix-without-bucket",
		"ipfs://localhost:5001/?timeout=soon",
	} {
		loc, err := interfaces.NewStorageBackendLocation(uri)
		require.NoError(t, err, uri)

		_, err = factory.StorageBackendFor(loc)
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI, uri)
	}

	_, err := interfaces.NewStorageBackendLocation("github://owner/repo")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestStorageBackendFactory_CreateMultiBackend(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	multi, err := factory.CreateMultiBackend([]string{
		"vault://secrets",
		"file://" + t.TempDir(),
	})
	require.NoError(t, err)
	assert.True(t, multi.Available(context.Background()))

	_, err = factory.CreateMultiBackend([]string{"vault://secrets", "::"})
	assert.Error(t, err)
}
