// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/compas/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	ds, err := dataset.Load(ctx, store, dataset.Files{Rules: "rules.txt", Labels: "labels.txt"})
//
// # Features
//
//   - Concurrent ranged downloads for whole-file reads
//   - Multipart uploads for reports
//   - Automatic pagination for listing
//   - Configurable prefix
package s3
