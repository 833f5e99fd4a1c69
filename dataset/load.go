package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/corelgo/blobstore"
	"github.com/hupe1980/corelgo/resource"
	"golang.org/x/sync/errgroup"
)

// Files names the blobs of a dataset. Minority is optional.
type Files struct {
	Rules    string `yaml:"rules"`
	Labels   string `yaml:"labels"`
	Minority string `yaml:"minority,omitempty"`
}

type loadOptions struct {
	rc     *resource.Controller
	logger *slog.Logger
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithResourceController throttles concurrent reads and read bandwidth.
func WithResourceController(rc *resource.Controller) LoadOption {
	return func(o *loadOptions) { o.rc = rc }
}

// WithLogger sets the logger for per-file load messages.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Load reads the dataset files from store in parallel.
func Load(ctx context.Context, store blobstore.Store, files Files, opts ...LoadOption) (*Dataset, error) {
	o := loadOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if files.Rules == "" || files.Labels == "" {
		return nil, fmt.Errorf("%w: rules and labels files are required", ErrInvalidDataset)
	}

	var rules, labels, minority []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rules, err = o.read(gctx, store, files.Rules)
		return err
	})
	g.Go(func() (err error) {
		labels, err = o.read(gctx, store, files.Labels)
		return err
	})
	if files.Minority != "" {
		g.Go(func() (err error) {
			minority, err = o.read(gctx, store, files.Minority)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FromRecords(rules, labels, minority)
}

// LoadDir reads the dataset files from a local directory.
func LoadDir(ctx context.Context, dir string, files Files, opts ...LoadOption) (*Dataset, error) {
	return Load(ctx, blobstore.NewLocalStore(dir), files, opts...)
}

func (o *loadOptions) read(ctx context.Context, store blobstore.Store, name string) ([]Record, error) {
	comp, err := CompressionFor(name)
	if err != nil {
		return nil, err
	}
	if err := o.rc.AcquireLoader(ctx); err != nil {
		return nil, err
	}
	defer o.rc.ReleaseLoader()

	start := time.Now()
	blob, err := blobstore.OpenStream(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", name, err)
	}
	defer blob.Close()

	lr := resource.NewRateLimitedReader(ctx, blob, o.rc)
	r, err := NewReader(comp, lr)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer r.Close()

	recs, err := ParseRecords(r, name)
	if err != nil {
		return nil, err
	}
	o.logger.DebugContext(ctx, "loaded dataset file",
		"file", name,
		"compression", comp.String(),
		"bytes", lr.BytesRead(),
		"records", len(recs),
		"duration", time.Since(start),
	)
	return recs, nil
}

// Save writes the dataset to store, compressing every file with c. It returns
// the names written.
func Save(ctx context.Context, store blobstore.Store, d *Dataset, base string, c Compression) (Files, error) {
	rules, labels, minority := d.Records()
	files := Files{
		Rules:  base + ".rules" + c.Ext(),
		Labels: base + ".labels" + c.Ext(),
	}
	if minority != nil {
		files.Minority = base + ".minor" + c.Ext()
	}

	put := func(name string, recs []Record) error {
		var buf bytes.Buffer
		w, err := NewWriter(c, &buf)
		if err != nil {
			return err
		}
		if err := WriteRecords(w, recs); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return blobstore.Put(ctx, store, name, buf.Bytes())
	}
	if err := put(files.Rules, rules); err != nil {
		return Files{}, err
	}
	if err := put(files.Labels, labels); err != nil {
		return Files{}, err
	}
	if minority != nil {
		if err := put(files.Minority, minority); err != nil {
			return Files{}, err
		}
	}
	return files, nil
}
