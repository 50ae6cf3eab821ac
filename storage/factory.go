package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/autonode/bls-cleanse/interfaces"
)

// StorageBackendFactory creates report storage backends from location URIs.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{log: logger}
}

// StorageBackendFor creates a storage backend from a location.
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node (mutable file system)
func (sf *StorageBackendFactory) StorageBackendFor(loc interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	switch loc.Scheme {
	case "ipfs":
		return sf.createIPFSBackend(loc)
	case "s3":
		return sf.createS3Backend(loc)
	case "file":
		return sf.createFileBackend(loc)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}
}

// CreateMultiBackend parses every URI and aggregates the resulting backends.
// Invalid URIs are logged and skipped; an error is returned only when none is usable.
func (sf *StorageBackendFactory) CreateMultiBackend(uris []string) (*MultiStorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(uris))

	for _, uri := range uris {
		loc, err := interfaces.NewStorageBackendLocation(uri)
		if err == nil {
			var backend interfaces.StorageBackend
			backend, err = sf.StorageBackendFor(loc)
			if err == nil {
				backends = append(backends, backend)
				continue
			}
		}
		sf.log.Warn("Failed to create storage backend",
			"err", err,
			slog.String("locationURI", uri))
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created from %d location(s)", len(uris))
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/base/dir?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(loc interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", loc.String()))

	host := loc.Host
	if host == "" {
		host = "localhost:5001"
	} else if !strings.Contains(host, ":") {
		host += ":5001"
	}

	timeout := loc.GetParam("timeout")
	if timeout == "" {
		timeout = "30s"
	}

	return NewIPFSBackend(host, loc.Path, timeout, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
// Without embedded credentials the default AWS credential chain is used.
func (sf *StorageBackendFactory) createS3Backend(loc interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}

	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if loc.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(loc.Auth, ":")
	}

	return NewS3Backend(S3Options{
		Bucket:         loc.Host,
		Prefix:         strings.TrimPrefix(loc.Path, "/"),
		Region:         region,
		Endpoint:       loc.GetParam("endpoint"),
		AccessKey:      accessKey,
		SecretKey:      secretKey,
		ForcePathStyle: loc.GetParamBool("path-style"),
	}, sf.log)
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(loc interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, loc.String())
	}

	return NewFileBackend(path, sf.log)
}
