package main

import (
	"github.com/spf13/pflag"
)

// sourceFlags select the dataset files. Set flags override the config file.
type sourceFlags struct {
	config string

	dir           string
	s3Bucket      string
	s3Prefix      string
	s3Region      string
	minioEndpoint string
	minioBucket   string
	minioPrefix   string
	minioSecure   bool

	rules    string
	labels   string
	minority string

	loaders int64
	ioLimit int64
}

func (f *sourceFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "YAML run configuration")
	fs.StringVar(&f.dir, "dir", "", "local directory holding the dataset files")
	fs.StringVar(&f.s3Bucket, "s3-bucket", "", "read dataset files from this S3 bucket")
	fs.StringVar(&f.s3Prefix, "s3-prefix", "", "key prefix inside the S3 bucket")
	fs.StringVar(&f.s3Region, "s3-region", "", "S3 region")
	fs.StringVar(&f.minioEndpoint, "minio-endpoint", "", "read dataset files from this MinIO endpoint")
	fs.StringVar(&f.minioBucket, "minio-bucket", "", "MinIO bucket")
	fs.StringVar(&f.minioPrefix, "minio-prefix", "", "key prefix inside the MinIO bucket")
	fs.BoolVar(&f.minioSecure, "minio-secure", false, "use TLS for MinIO")
	fs.StringVar(&f.rules, "rules", "", "rules file (.zst and .lz4 are decompressed)")
	fs.StringVar(&f.labels, "labels", "", "labels file")
	fs.StringVar(&f.minority, "minority", "", "optional minority file for the equivalent points bound")
	fs.Int64Var(&f.loaders, "loaders", 0, "dataset files fetched concurrently")
	fs.Int64Var(&f.ioLimit, "io-limit", 0, "dataset read limit in bytes per second")
}

// apply merges the set flags into cfg.
func (f *sourceFlags) apply(fs *pflag.FlagSet, cfg *fileConfig) {
	if fs.Changed("dir") {
		cfg.Source = sourceConfig{Dir: f.dir}
	}
	if fs.Changed("s3-bucket") {
		cfg.Source = sourceConfig{S3: &s3Source{Bucket: f.s3Bucket}}
	}
	if s := cfg.Source.S3; s != nil {
		if fs.Changed("s3-prefix") {
			s.Prefix = f.s3Prefix
		}
		if fs.Changed("s3-region") {
			s.Region = f.s3Region
		}
	}
	if fs.Changed("minio-endpoint") {
		cfg.Source = sourceConfig{MinIO: &minioSource{Endpoint: f.minioEndpoint}}
	}
	if m := cfg.Source.MinIO; m != nil {
		if fs.Changed("minio-bucket") {
			m.Bucket = f.minioBucket
		}
		if fs.Changed("minio-prefix") {
			m.Prefix = f.minioPrefix
		}
		if fs.Changed("minio-secure") {
			m.Secure = f.minioSecure
		}
	}
	if fs.Changed("rules") {
		cfg.Files.Rules = f.rules
	}
	if fs.Changed("labels") {
		cfg.Files.Labels = f.labels
	}
	if fs.Changed("minority") {
		cfg.Files.Minority = f.minority
	}
	if fs.Changed("loaders") {
		cfg.Resources.MaxLoaders = f.loaders
	}
	if fs.Changed("io-limit") {
		cfg.Resources.IOLimitBytesPerSec = f.ioLimit
	}
}
