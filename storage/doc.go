// Package storage archives cleanse reports in content-addressed storage.
//
// Reports are JSON encoded and identified by the SHA-256 hash of their
// encoding. Backends are configured with location URIs:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/bls-cleanse/
//   - s3://bucket-name/prefix/?region=us-west-2&endpoint=minio.local:9000&path-style=true
//   - ipfs://localhost:5001/bls-cleanse?timeout=30s
//
// Several locations can be combined with StorageBackendFactory.CreateMultiBackend;
// a report is written to every reachable backend and read back from the first
// one holding it.
//
// ReportArchive is the entry point used by the CLI:
//
//	backend, err := storage.NewStorageBackendFactory(log).CreateMultiBackend(uris)
//	archive := storage.NewReportArchive(backend, log)
//	id, err := archive.Store(ctx, report)
//	report, err = archive.Load(ctx, id)
package storage
