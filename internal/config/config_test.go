package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specsync/internal/correlate"
	"github.com/roach88/specsync/internal/testutil"
	"github.com/roach88/specsync/internal/verify"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".feature", cfg.FeatureExtension)
	assert.Empty(t, cfg.TrimSuffixes)
	assert.Equal(t, "test.step", cfg.StepCategory)
	assert.Equal(t, "skip", cfg.SkipTag)
	assert.Equal(t, "immediate", cfg.Mode)
	assert.Equal(t, "strict", cfg.MissingFeature)
	assert.Equal(t, "30s", cfg.ParseTimeout)
	assert.Empty(t, cfg.HistoryDB)
	assert.False(t, cfg.NormalizeUnicode)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, verify.DefaultParseTimeout, d)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "specsync.cue", `
mode:            "deferred"
missing_feature: "warn"
trim_suffixes:   ["_test", ".e2e"]
parse_timeout:   "1m30s"
history_db:      "runs.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deferred", cfg.Mode)
	assert.Equal(t, "warn", cfg.MissingFeature)
	assert.Equal(t, []string{"_test", ".e2e"}, cfg.TrimSuffixes)
	assert.Equal(t, "runs.db", cfg.HistoryDB)
	assert.Equal(t, ".feature", cfg.FeatureExtension, "unset fields keep defaults")

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown mode", `mode: "later"`, "mode"},
		{"unknown policy", `missing_feature: "lenient"`, "missing_feature"},
		{"unknown field", `colour: "blue"`, "colour"},
		{"bad extension", `feature_extension: "feature"`, "feature_extension"},
		{"bad timeout", `parse_timeout: "soon"`, "parse_timeout"},
		{"empty skip tag", `skip_tag: ""`, "skip_tag"},
		{"syntax error", `mode: "deferred`, "specsync.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("specsync.cue", []byte(tt.src))
			require.Error(t, err)

			var ce *Error
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_Options(t *testing.T) {
	cfg, err := Parse("specsync.cue", []byte(`
feature_extension: ".gherkin"
trim_suffixes:     ["_test"]
missing_feature:   "warn"
mode:              "deferred"
`))
	require.NoError(t, err)

	assert.Equal(t, correlate.Convention{Extension: ".gherkin", TrimSuffixes: []string{"_test"}}, cfg.Convention())

	copts, err := cfg.CorrelatorOptions()
	require.NoError(t, err)
	c := correlate.New(copts...)
	assert.Equal(t, correlate.PolicyWarn, c.Policy())
	assert.Equal(t, filepath.FromSlash("pkg/cart.gherkin"), c.Convention().SpecPath(filepath.FromSlash("pkg/cart_test.go")))

	vopts, err := cfg.ReporterOptions()
	require.NoError(t, err)
	assert.Equal(t, verify.ModeDeferred, verify.NewReporter(vopts...).Mode())
}

func TestConfig_NormalizeUnicode(t *testing.T) {
	composed, decomposed := "Caf\u00e9", "Cafe\u0301"

	copts, err := Default().CorrelatorOptions()
	require.NoError(t, err)
	assert.False(t, correlate.New(copts...).TextEqual()(composed, decomposed))

	cfg, err := Parse("specsync.cue", []byte("normalize_unicode: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.NormalizeUnicode)

	copts, err = cfg.CorrelatorOptions()
	require.NoError(t, err)
	assert.True(t, correlate.New(copts...).TextEqual()(composed, decomposed))

	_, err = Parse("specsync.cue", []byte(`normalize_unicode: "yes"`))
	assert.Error(t, err)
}
