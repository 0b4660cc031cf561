package run

// CategoryTestStep is the step category engines use for user-authored steps.
// Hooks, fixtures and expectations carry other categories.
const CategoryTestStep = "test.step"

// Location points at a position in a test source file.
type Location struct {
	File   string `yaml:"file" json:"file"`
	Line   int    `yaml:"line,omitempty" json:"line,omitempty"`
	Column int    `yaml:"column,omitempty" json:"column,omitempty"`
}

// Group is a node of the suite tree: a file, a describe block, or the root.
type Group struct {
	Title    string      `yaml:"title" json:"title"`
	Location *Location   `yaml:"location,omitempty" json:"location,omitempty"`
	Groups   []*Group    `yaml:"groups,omitempty" json:"groups,omitempty"`
	Tests    []*TestCase `yaml:"tests,omitempty" json:"tests,omitempty"`

	parent *Group
}

// NewGroup creates a group. file may be empty for groups without a source.
func NewGroup(title, file string) *Group {
	g := &Group{Title: title}
	if file != "" {
		g.Location = &Location{File: file}
	}
	return g
}

// AddGroup appends child and links it to g.
func (g *Group) AddGroup(child *Group) *Group {
	child.parent = g
	g.Groups = append(g.Groups, child)
	return child
}

// AddTest appends a test declared in file at line and links it to g.
func (g *Group) AddTest(title, file string, line int) *TestCase {
	tc := &TestCase{
		Title:    title,
		Location: Location{File: file, Line: line},
		parent:   g,
	}
	g.Tests = append(g.Tests, tc)
	return tc
}

// Parent returns the enclosing group, nil for the root.
func (g *Group) Parent() *Group {
	return g.parent
}

// Link sets parent pointers for the whole subtree. Decoders call it after
// unmarshalling, since parent links are not serialized.
func (g *Group) Link() {
	for _, child := range g.Groups {
		child.parent = g
		child.Link()
	}
	for _, tc := range g.Tests {
		tc.parent = g
	}
}

// AllTests returns every test in the subtree in declaration order.
func (g *Group) AllTests() []*TestCase {
	var tests []*TestCase
	g.Walk(func(group *Group) {
		tests = append(tests, group.Tests...)
	})
	return tests
}

// Walk calls fn for g and every descendant, depth first.
func (g *Group) Walk(fn func(*Group)) {
	fn(g)
	for _, child := range g.Groups {
		child.Walk(fn)
	}
}

// TestCase is a single test as the engine declared it.
type TestCase struct {
	Title    string   `yaml:"title" json:"title"`
	Location Location `yaml:"location" json:"location"`

	parent *Group
}

// Parent returns the group that directly encloses the test.
func (t *TestCase) Parent() *Group {
	return t.parent
}

// ParentTitle returns the enclosing group's title, empty without a parent.
func (t *TestCase) ParentTitle() string {
	if t.parent == nil {
		return ""
	}
	return t.parent.Title
}

// ExecutedStep is a step the engine reports as having run.
type ExecutedStep struct {
	Title    string         `yaml:"title" json:"title"`
	Category string         `yaml:"category" json:"category"`
	Steps    []ExecutedStep `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// TestResult is the outcome of one test.
type TestResult struct {
	Status string         `yaml:"status,omitempty" json:"status,omitempty"`
	Steps  []ExecutedStep `yaml:"steps" json:"steps"`
}

// StepsIn returns the top-level steps with the given category, in order.
// Nested steps are never considered.
func (r TestResult) StepsIn(category string) []ExecutedStep {
	var out []ExecutedStep
	for _, step := range r.Steps {
		if step.Category == category {
			out = append(out, step)
		}
	}
	return out
}

// TestRun pairs a test with its result.
type TestRun struct {
	Test   *TestCase
	Result TestResult
}
