package main

import (
	"fmt"

	"github.com/hupe1980/corelgo/blobstore"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/resource"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	sourceFlags

	outDir      string
	name        string
	compression string
}

func newConvertCmd(g *globalFlags) *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Rewrite a dataset, optionally compressed",
		Long: `convert loads a dataset from any supported source and writes it to a
local directory as <name>.rules, <name>.labels and, when present,
<name>.minor. With --compression the files get a .zst or .lz4 suffix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, g, f)
		},
	}
	fs := cmd.Flags()
	f.bind(fs)
	cmd.MarkFlagsMutuallyExclusive("dir", "s3-bucket", "minio-endpoint")
	fs.StringVar(&f.outDir, "out-dir", ".", "directory to write to")
	fs.StringVar(&f.name, "name", "dataset", "base name of the written files")
	fs.StringVar(&f.compression, "compression", "none", "compression (none, zstd, lz4)")
	return cmd
}

func runConvert(cmd *cobra.Command, g *globalFlags, f *convertFlags) error {
	cfg, err := loadFileConfig(f.config)
	if err != nil {
		return err
	}
	f.apply(cmd.Flags(), &cfg)

	c, err := dataset.ParseCompression(f.compression)
	if err != nil {
		return err
	}
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ds, err := loadDataset(ctx, cfg, resource.NewController(cfg.Resources), logger)
	if err != nil {
		return err
	}
	files, err := dataset.Save(ctx, blobstore.NewLocalStore(f.outDir), ds, f.name, c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, files.Rules)
	fmt.Fprintln(out, files.Labels)
	if files.Minority != "" {
		fmt.Fprintln(out, files.Minority)
	}
	return nil
}
