package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/autonode/bls-cleanse/interfaces"
)

const defaultIPFSBaseDir = "/bls-cleanse"

// IPFSBackend stores content in the mutable file system (MFS) of an IPFS node,
// addressed by SHA-256 content ID. The node pins MFS content, so stored reports
// remain retrievable through their IPFS CID as well.
type IPFSBackend struct {
	shell       *shell.Shell
	apiURL      string
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates an IPFS backend talking to the node API at apiURL
// (host:port). Content is kept below baseDir in MFS.
func NewIPFSBackend(apiURL, baseDir, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ipfs timeout %q: %v", interfaces.ErrInvalidLocationURI, timeout, err)
	}

	baseDir = strings.TrimSuffix(baseDir, "/")
	if baseDir == "" {
		baseDir = defaultIPFSBaseDir
	}

	sh := shell.NewShell(apiURL)
	sh.SetTimeout(d)

	return &IPFSBackend{
		shell:       sh,
		apiURL:      apiURL,
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, baseDir, timeout),
	}, nil
}

// Fetch reads content by ID. Returns ErrContentNotFound if the file doesn't
// exist or ErrBackendUnavailable if the node is not reachable.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	filePath := b.getMFSPath(id, contentType)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable", slog.String("api", b.apiURL))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, filePath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to read %s from IPFS: %w", filePath, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes data to MFS under its SHA-256 content ID.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	filePath := b.getMFSPath(id, contentType)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	err := b.shell.FilesWrite(ctx, filePath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return id, fmt.Errorf("failed to write %s to IPFS: %w", filePath, err)
	}

	attrs := []any{slog.String("path", filePath), slog.String("contentID", id.String())}
	if stat, err := b.shell.FilesStat(ctx, filePath); err == nil {
		attrs = append(attrs, slog.String("ipfsCID", stat.Hash))
	}
	b.log.Debug("Stored content in IPFS", attrs...)

	return id, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s", b.apiURL)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getMFSPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(b.baseDir, contentType.String(), id.String()+".json")
}
