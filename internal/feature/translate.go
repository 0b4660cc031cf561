package feature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Opener opens a feature file for reading.
type Opener func(path string) (io.ReadCloser, error)

// Option configures Translate.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	open        Opener
	skipMissing bool
}

// WithLogger sets the logger used for translation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOpener replaces os.Open as the source of feature file contents.
func WithOpener(open Opener) Option {
	return func(o *options) {
		if open != nil {
			o.open = open
		}
	}
}

// WithSkipMissing skips paths that do not exist instead of failing. Tests
// whose feature file is missing then fail at lookup time, one by one.
func WithSkipMissing() Option {
	return func(o *options) { o.skipMissing = true }
}

// event is one item of the parse stream: either a document or a pickle.
type event struct {
	document *messages.GherkinDocument
	pickle   *messages.Pickle
}

// astNode is what the translator remembers about a scenario or step AST node
// so pickles can be annotated with source lines and keywords.
type astNode struct {
	line    int
	keyword string
}

// Translate parses the feature files at paths and returns them keyed by URI.
//
// Parsing happens on a producer goroutine that emits a document event and
// then its pickle events; the calling goroutine's consumer appends pickles to
// the document registered under the pickle's URI.
//
// A document with two scenarios of the same name is kept with Err set to a
// *DuplicateScenarioError; the other documents translate normally.
//
// ctx bounds the whole translation. When its deadline passes, Translate
// returns an error wrapping ErrTranslateTimeout and context.DeadlineExceeded
// without waiting for a stuck reader. The reader is closed on cancellation,
// so the producer goroutine exits as soon as Close unblocks the pending Read;
// an Opener whose readers ignore Close keeps it alive until Read returns.
func Translate(ctx context.Context, paths []string, opts ...Option) (Map, error) {
	o := &options{
		logger: zap.NewNop(),
		open:   func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
	for _, opt := range opts {
		opt(o)
	}

	paths = uniquePaths(paths)
	b := &builder{
		logger:   o.logger,
		features: make(Map, len(paths)),
		nodes:    make(map[string]astNode),
	}

	g, gctx := errgroup.WithContext(ctx)
	events := make(chan event)

	g.Go(func() error {
		defer close(events)
		return produce(gctx, paths, o, events)
	})
	g.Go(func() error {
		for ev := range events {
			if err := b.apply(ev); err != nil {
				return err
			}
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return b.finish(err)
	case <-ctx.Done():
		// The stream may have finished in the same instant.
		select {
		case err := <-done:
			return b.finish(err)
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w (%d files): %w", ErrTranslateTimeout, len(paths), ctx.Err())
		}
		return nil, fmt.Errorf("feature translation canceled: %w", ctx.Err())
	}
}

// produce parses every path in order and emits its events.
func produce(ctx context.Context, paths []string, o *options, events chan<- event) error {
	newID := (&messages.Incrementing{}).NewId

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := parseDocument(ctx, path, o.open, newID)
		if err != nil {
			if o.skipMissing && errors.Is(err, fs.ErrNotExist) {
				o.logger.Debug("feature file missing, skipped", zap.String("path", path))
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &ParseError{Path: path, Err: err}
		}

		if err := emit(ctx, events, event{document: doc}); err != nil {
			return err
		}
		for _, pickle := range gherkin.Pickles(*doc, doc.Uri, newID) {
			if err := emit(ctx, events, event{pickle: pickle}); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseDocument reads one file. Cancelling ctx closes the reader to unblock
// a Read in progress.
func parseDocument(ctx context.Context, path string, open Opener, newID func() string) (*messages.GherkinDocument, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = r.Close() })
	defer func() {
		if stop() {
			_ = r.Close()
		}
	}()

	doc, err := gherkin.ParseGherkinDocument(r, newID)
	if err != nil {
		return nil, err
	}
	doc.Uri = path
	return doc, nil
}

func emit(ctx context.Context, events chan<- event, ev event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// builder accumulates the Map on the consumer side of the stream.
type builder struct {
	logger   *zap.Logger
	features Map
	nodes    map[string]astNode
}

func (b *builder) apply(ev event) error {
	switch {
	case ev.document != nil:
		b.addDocument(ev.document)
	case ev.pickle != nil:
		return b.addPickle(ev.pickle)
	}
	return nil
}

func (b *builder) addDocument(gd *messages.GherkinDocument) {
	doc := &Document{URI: gd.Uri}
	if gd.Feature != nil {
		doc.HasFeature = true
		doc.FeatureName = gd.Feature.Name
		doc.Tags = tagNames(gd.Feature.Tags)
		for _, child := range gd.Feature.Children {
			b.indexFeatureChild(child)
		}
	}
	b.features[gd.Uri] = doc
}

func (b *builder) indexFeatureChild(child *messages.FeatureChild) {
	switch {
	case child.Background != nil:
		b.indexSteps(child.Background.Steps)
	case child.Scenario != nil:
		b.indexScenario(child.Scenario)
	case child.Rule != nil:
		for _, rc := range child.Rule.Children {
			if rc.Background != nil {
				b.indexSteps(rc.Background.Steps)
			}
			if rc.Scenario != nil {
				b.indexScenario(rc.Scenario)
			}
		}
	}
}

func (b *builder) indexScenario(sc *messages.Scenario) {
	b.nodes[sc.Id] = astNode{line: lineOf(sc.Location), keyword: strings.TrimSpace(sc.Keyword)}
	b.indexSteps(sc.Steps)
}

func (b *builder) indexSteps(steps []*messages.Step) {
	for _, st := range steps {
		b.nodes[st.Id] = astNode{line: lineOf(st.Location), keyword: strings.TrimSpace(st.Keyword)}
	}
}

func (b *builder) addPickle(p *messages.Pickle) error {
	doc, ok := b.features[p.Uri]
	if !ok {
		return fmt.Errorf("%w: %s (scenario %q)", ErrOrphanPickle, p.Uri, p.Name)
	}
	if doc.FindScenario(p.Name, SameText) != nil {
		if doc.Err == nil {
			doc.Err = &DuplicateScenarioError{URI: p.Uri, Name: p.Name}
			b.logger.Warn("feature file rejected",
				zap.String("uri", p.Uri),
				zap.Error(doc.Err),
			)
		}
		return nil
	}

	sc := &Scenario{
		Name:  p.Name,
		URI:   p.Uri,
		Tags:  pickleTagNames(p.Tags),
		Steps: make([]Step, 0, len(p.Steps)),
	}
	if len(p.AstNodeIds) > 0 {
		sc.Line = b.nodes[p.AstNodeIds[0]].line
	}
	for _, ps := range p.Steps {
		step := Step{Text: ps.Text}
		if len(ps.AstNodeIds) > 0 {
			step.Keyword = b.nodes[ps.AstNodeIds[0]].keyword
		}
		sc.Steps = append(sc.Steps, step)
	}

	doc.Scenarios = append(doc.Scenarios, sc)
	return nil
}

func (b *builder) finish(err error) (Map, error) {
	if err != nil {
		return nil, err
	}
	b.logger.Debug("feature files translated",
		zap.Int("documents", len(b.features)),
		zap.Int("scenarios", b.features.ScenarioCount()),
	)
	return b.features, nil
}

// uniquePaths drops duplicate paths, keeping first occurrence order.
func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func lineOf(loc *messages.Location) int {
	if loc == nil {
		return 0
	}
	return int(loc.Line)
}

func tagNames(tags []*messages.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func pickleTagNames(tags []*messages.PickleTag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
