package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/specsync/internal/correlate"
	"github.com/roach88/specsync/internal/feature"
	"github.com/roach88/specsync/internal/verify"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded configuration.
type Config struct {
	FeatureExtension string   `json:"feature_extension"`
	TrimSuffixes     []string `json:"trim_suffixes"`
	StepCategory     string   `json:"step_category"`
	SkipTag          string   `json:"skip_tag"`
	Mode             string   `json:"mode"`
	MissingFeature   string   `json:"missing_feature"`
	ParseTimeout     string   `json:"parse_timeout"`
	HistoryDB        string   `json:"history_db"`

	// NormalizeUnicode compares titles and steps in NFC instead of byte for byte.
	NormalizeUnicode bool `json:"normalize_unicode"`
}

// Error is an invalid configuration, positioned when CUE knows where.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() *Config {
	cfg, err := compile("", nil)
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	return cfg
}

// Load reads a CUE configuration file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return compile(path, data)
}

// Parse compiles configuration source. filename is used in error positions.
func Parse(filename string, data []byte) (*Config, error) {
	return compile(filename, data)
}

func compile(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if data != nil {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return nil, &Error{Message: fmt.Sprintf("parse_timeout: %v", err)}
	}
	return &cfg, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

// Timeout returns parse_timeout as a duration.
func (c *Config) Timeout() (time.Duration, error) {
	return time.ParseDuration(c.ParseTimeout)
}

// Convention returns the feature file naming convention.
func (c *Config) Convention() correlate.Convention {
	return correlate.Convention{
		Extension:    c.FeatureExtension,
		TrimSuffixes: c.TrimSuffixes,
	}
}

// CorrelatorOptions returns the correlate options this configuration selects.
func (c *Config) CorrelatorOptions() ([]correlate.Option, error) {
	policy, err := correlate.ParsePolicy(c.MissingFeature)
	if err != nil {
		return nil, err
	}
	return []correlate.Option{
		correlate.WithConvention(c.Convention()),
		correlate.WithPolicy(policy),
		correlate.WithTextEqual(feature.TextEqualFor(c.NormalizeUnicode)),
	}, nil
}

// ReporterOptions returns the verify options this configuration selects,
// not including the correlator.
func (c *Config) ReporterOptions() ([]verify.Option, error) {
	mode, err := verify.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}
	return []verify.Option{
		verify.WithMode(mode),
		verify.WithStepCategory(c.StepCategory),
		verify.WithSkipTag(c.SkipTag),
		verify.WithParseTimeout(timeout),
	}, nil
}
