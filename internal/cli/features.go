package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/specsync/internal/feature"
)

// FeatureDoc is a translated feature file.
type FeatureDoc struct {
	URI       string        `json:"uri"`
	Feature   string        `json:"feature,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Scenarios []ScenarioDoc `json:"scenarios"`
}

// ScenarioDoc is a scenario of a translated feature file.
type ScenarioDoc struct {
	Name  string   `json:"name"`
	Line  int      `json:"line,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Steps []string `json:"steps"`
}

// NewFeaturesCommand creates the features command.
func NewFeaturesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features <file.feature>...",
		Short: "Show feature files the way verification sees them",
		Long: `Parse feature files and print their scenarios and steps after
backgrounds and outlines are expanded, with keywords removed.

Examples:
  specsync features tests/checkout.feature
  specsync features tests/*.feature --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(cmd.Context(), rootOpts, args, cmd)
		},
	}
	return cmd
}

func runFeatures(ctx context.Context, opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	features, err := feature.Translate(ctx, paths, feature.WithLogger(opts.log()))
	if err != nil {
		return commandError(formatter, ErrCodeTranslate, "failed to read feature files", err)
	}
	if invalid := features.Invalid(); len(invalid) > 0 {
		errs := make([]error, len(invalid))
		for i, doc := range invalid {
			errs[i] = doc.Err
		}
		return commandError(formatter, ErrCodeTranslate, "invalid feature files", errors.Join(errs...))
	}

	docs := make([]FeatureDoc, 0, len(features))
	for _, uri := range features.URIs() {
		docs = append(docs, newFeatureDoc(features[uri]))
	}

	if opts.Format == "json" {
		return formatter.Success(docs)
	}
	for i, doc := range docs {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		writeFeatureText(formatter.Writer, doc)
	}
	return nil
}

func newFeatureDoc(doc *feature.Document) FeatureDoc {
	out := FeatureDoc{
		URI:       doc.URI,
		Feature:   doc.FeatureName,
		Tags:      doc.Tags,
		Scenarios: make([]ScenarioDoc, 0, len(doc.Scenarios)),
	}
	for _, sc := range doc.Scenarios {
		steps := make([]string, len(sc.Steps))
		for i, step := range sc.Steps {
			steps[i] = step.Text
		}
		out.Scenarios = append(out.Scenarios, ScenarioDoc{
			Name:  sc.Name,
			Line:  sc.Line,
			Tags:  sc.Tags,
			Steps: steps,
		})
	}
	return out
}

func writeFeatureText(w io.Writer, doc FeatureDoc) {
	fmt.Fprintln(w, doc.URI)
	if doc.Feature == "" && len(doc.Scenarios) == 0 {
		fmt.Fprintln(w, "  (no feature)")
		return
	}
	fmt.Fprintf(w, "  Feature: %s%s\n", doc.Feature, tagSuffix(doc.Tags))
	for _, sc := range doc.Scenarios {
		noun := "steps"
		if len(sc.Steps) == 1 {
			noun = "step"
		}
		fmt.Fprintf(w, "    Scenario: %s (%d %s)%s\n", sc.Name, len(sc.Steps), noun, tagSuffix(sc.Tags))
		for _, step := range sc.Steps {
			fmt.Fprintf(w, "      %s\n", step)
		}
	}
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, " ") + "]"
}
