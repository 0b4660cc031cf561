package feature

import (
	"sort"
	"strings"
)

// Step is one declared step of a scenario.
type Step struct {
	// Keyword is the Gherkin keyword as written ("Given", "And", ...).
	// Informational only; matching uses Text.
	Keyword string `json:"keyword,omitempty"`

	// Text is the step text without its keyword.
	Text string `json:"text"`
}

// Scenario is a resolved, executable scenario drawn from a document.
// Outline rows are already expanded into separate scenarios.
type Scenario struct {
	Name  string   `json:"name"`
	URI   string   `json:"uri"`
	Tags  []string `json:"tags,omitempty"`
	Steps []Step   `json:"steps"`

	// Line is the source line of the scenario header, 0 if unknown.
	Line int `json:"line,omitempty"`
}

// HasTag reports whether the scenario carries the tag. The leading "@" is
// optional on both sides, so "skip" matches "@skip".
func (s *Scenario) HasTag(name string) bool {
	want := strings.TrimPrefix(name, "@")
	for _, tag := range s.Tags {
		if strings.TrimPrefix(tag, "@") == want {
			return true
		}
	}
	return false
}

// StepTexts returns the declared step texts in order.
func (s *Scenario) StepTexts() []string {
	texts := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		texts[i] = step.Text
	}
	return texts
}

// Document is a parsed feature file.
type Document struct {
	// URI is the path the parser reported for the document. Unique key in Map.
	URI string `json:"uri"`

	// FeatureName is the name of the Feature block. Empty when HasFeature is false.
	FeatureName string `json:"feature_name,omitempty"`

	// HasFeature is false for files without a Feature block (e.g. only comments).
	HasFeature bool `json:"has_feature"`

	Tags      []string    `json:"tags,omitempty"`
	Scenarios []*Scenario `json:"scenarios"`

	// Err is set when the document parsed but cannot be verified, e.g. two
	// scenarios share a name. Its tests fail; other documents are unaffected.
	Err error `json:"-"`
}

// Scenario returns the scenario with exactly the given name, or nil.
func (d *Document) Scenario(name string) *Scenario {
	return d.FindScenario(name, ExactText)
}

// FindScenario returns the first scenario whose name equals name under
// equal, or nil.
func (d *Document) FindScenario(name string, equal TextEqual) *Scenario {
	if equal == nil {
		equal = ExactText
	}
	for _, sc := range d.Scenarios {
		if equal(sc.Name, name) {
			return sc
		}
	}
	return nil
}

// Invalid returns the documents whose Err is set, in URI order.
func (m Map) Invalid() []*Document {
	var docs []*Document
	for _, uri := range m.URIs() {
		if m[uri].Err != nil {
			docs = append(docs, m[uri])
		}
	}
	return docs
}

// Map holds the documents of one run keyed by URI.
type Map map[string]*Document

// Lookup returns the document registered under uri.
func (m Map) Lookup(uri string) (*Document, bool) {
	doc, ok := m[uri]
	return doc, ok
}

// URIs returns the registered URIs in sorted order.
func (m Map) URIs() []string {
	uris := make([]string, 0, len(m))
	for uri := range m {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// ScenarioCount returns the total number of scenarios across all documents.
func (m Map) ScenarioCount() int {
	n := 0
	for _, doc := range m {
		n += len(doc.Scenarios)
	}
	return n
}
