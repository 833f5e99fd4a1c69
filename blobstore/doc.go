// Package blobstore abstracts where dataset files live.
//
// A Store opens named, immutable blobs. Datasets are small compared to the
// search they feed, so the loader reads whole blobs; stores that can do
// better than a single ranged read implement Fetcher.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, memory-mapped
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with concurrent ranged downloads
//   - minio.Store: MinIO and other S3-compatible storage
//
// Stores that also implement Putter can receive run reports.
package blobstore
