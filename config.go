package corelgo

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the Learn options.
// Empty fields keep the defaults.
type Config struct {
	Ordering         string          `yaml:"ordering,omitempty"`
	Curiosity        string          `yaml:"curiosity,omitempty"`
	Regularization   *float64        `yaml:"regularization,omitempty"`
	MaxNodes         *int            `yaml:"max_nodes,omitempty"`
	Ablation         int             `yaml:"ablation,omitempty"`
	Cache            string          `yaml:"cache,omitempty"`
	CacheMaxBytes    int64           `yaml:"cache_max_bytes,omitempty"`
	TimeLimit        time.Duration   `yaml:"time_limit,omitempty"`
	MaxIterations    uint64          `yaml:"max_iterations,omitempty"`
	ProgressInterval *uint64         `yaml:"progress_interval,omitempty"`
	Fairness         *FairnessConfig `yaml:"fairness,omitempty"`
}

// FairnessConfig is the file form of Fairness. Groups are named by rule.
type FairnessConfig struct {
	Metric       string  `yaml:"metric"`
	Beta         float64 `yaml:"beta"`
	Epsilon      float64 `yaml:"epsilon,omitempty"`
	MajorityRule string  `yaml:"majority_rule"`
	MinorityRule string  `yaml:"minority_rule"`
}

// ParseConfig decodes a YAML document. Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// Options converts the configuration into Learn options.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.Ordering != "" {
		o, err := ParseOrdering(c.Ordering)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithOrdering(o))
	}
	if c.Curiosity != "" {
		p, err := ParseCuriosityPolicy(c.Curiosity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCuriosityPolicy(p))
	}
	if c.Regularization != nil {
		opts = append(opts, WithRegularization(*c.Regularization))
	}
	if c.MaxNodes != nil {
		opts = append(opts, WithMaxNodes(*c.MaxNodes))
	}
	if c.Ablation != 0 {
		a, err := ParseAblation(c.Ablation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAblation(a))
	}
	if c.Cache != "" {
		k, err := ParseCacheKind(c.Cache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCache(k, c.CacheMaxBytes))
	}
	if c.TimeLimit < 0 {
		return nil, fmt.Errorf("%w: negative time limit %s", ErrInvalidConfig, c.TimeLimit)
	}
	if c.TimeLimit > 0 {
		opts = append(opts, WithTimeLimit(c.TimeLimit))
	}
	if c.MaxIterations > 0 {
		opts = append(opts, WithMaxIterations(c.MaxIterations))
	}
	if c.ProgressInterval != nil {
		opts = append(opts, WithProgressInterval(*c.ProgressInterval))
	}
	if f := c.Fairness; f != nil {
		m, err := ParseFairnessMetric(f.Metric)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFairness(&Fairness{
			Metric:       m,
			Beta:         f.Beta,
			Epsilon:      f.Epsilon,
			MajorityRule: f.MajorityRule,
			MinorityRule: f.MinorityRule,
		}))
	}
	return opts, nil
}
