package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/corelgo"
	"github.com/hupe1980/corelgo/blobstore"
	minioblob "github.com/hupe1980/corelgo/blobstore/minio"
	s3blob "github.com/hupe1980/corelgo/blobstore/s3"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/resource"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

// fileConfig is the --config document. Flags override its fields.
type fileConfig struct {
	Source    sourceConfig    `yaml:"source"`
	Files     dataset.Files   `yaml:"files"`
	Learn     corelgo.Config  `yaml:"learn"`
	Resources resource.Config `yaml:"resources"`
	Output    outputConfig    `yaml:"output"`
	Metrics   metricsConfig   `yaml:"metrics"`
}

// sourceConfig names where dataset files live. At most one is set.
type sourceConfig struct {
	Dir   string       `yaml:"dir,omitempty"`
	S3    *s3Source    `yaml:"s3,omitempty"`
	MinIO *minioSource `yaml:"minio,omitempty"`
}

type s3Source struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
}

type minioSource struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix,omitempty"`
	// Credentials default to MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

type outputConfig struct {
	Path   string `yaml:"path,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type metricsConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// describe names the source for log records.
func (s sourceConfig) describe() string {
	switch {
	case s.S3 != nil:
		return "s3://" + s.S3.Bucket + "/" + s.S3.Prefix
	case s.MinIO != nil:
		return "minio://" + s.MinIO.Endpoint + "/" + s.MinIO.Bucket + "/" + s.MinIO.Prefix
	case s.Dir != "":
		return s.Dir
	default:
		return "."
	}
}

// open returns the store holding the dataset files.
func (s sourceConfig) open(ctx context.Context) (blobstore.Store, error) {
	set := 0
	for _, ok := range []bool{s.Dir != "", s.S3 != nil, s.MinIO != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("only one of dir, s3 and minio may be set")
	}

	switch {
	case s.S3 != nil:
		if s.S3.Bucket == "" {
			return nil, errors.New("s3 source needs a bucket")
		}
		var opts []s3blob.Option
		if s.S3.Prefix != "" {
			opts = append(opts, s3blob.WithPrefix(s.S3.Prefix))
		}
		if s.S3.Region != "" {
			opts = append(opts, s3blob.WithRegion(s.S3.Region))
		}
		store, err := s3blob.New(ctx, s.S3.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case s.MinIO != nil:
		m := s.MinIO
		if m.Endpoint == "" || m.Bucket == "" {
			return nil, errors.New("minio source needs an endpoint and a bucket")
		}
		access, secret := m.AccessKey, m.SecretKey
		if access == "" {
			access = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secret == "" {
			secret = os.Getenv("MINIO_SECRET_KEY")
		}
		client, err := minio.New(m.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(access, secret, ""),
			Secure: m.Secure,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, m.Bucket, m.Prefix), nil
	case s.Dir != "":
		return blobstore.NewLocalStore(s.Dir), nil
	default:
		return blobstore.NewLocalStore("."), nil
	}
}
