package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenarioHasTag(t *testing.T) {
	sc := &Scenario{Tags: []string{"@skip", "@smoke"}}

	assert.True(t, sc.HasTag("skip"))
	assert.True(t, sc.HasTag("@smoke"))
	assert.False(t, sc.HasTag("slow"))
	assert.False(t, (&Scenario{}).HasTag("skip"))
}

func TestDocumentScenario_FirstMatch(t *testing.T) {
	first := &Scenario{Name: "Login"}
	doc := &Document{Scenarios: []*Scenario{first, {Name: "Logout"}}}

	assert.Same(t, first, doc.Scenario("Login"))
	assert.Nil(t, doc.Scenario("Signup"))
}

func TestSameText(t *testing.T) {
	composed := "Caf\u00e9 checkout"
	decomposed := "Cafe\u0301 checkout"

	assert.NotEqual(t, composed, decomposed)
	assert.True(t, SameText(composed, decomposed))
	assert.True(t, SameText("a", "a"))
	assert.False(t, SameText("a", "b"))

	doc := &Document{Scenarios: []*Scenario{{Name: composed}}}
	assert.Nil(t, doc.Scenario(decomposed), "lookup is exact by default")
	assert.NotNil(t, doc.FindScenario(decomposed, SameText))
}

func TestTextEqualFor(t *testing.T) {
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"

	assert.False(t, TextEqualFor(false)(composed, decomposed))
	assert.True(t, TextEqualFor(false)(composed, composed))
	assert.True(t, TextEqualFor(true)(composed, decomposed))
	assert.False(t, ExactText("a", "a "))
}

func TestMapInvalid(t *testing.T) {
	bad := &Document{URI: "b.feature", Err: &DuplicateScenarioError{URI: "b.feature", Name: "x"}}
	m := Map{
		"a.feature": {URI: "a.feature"},
		"b.feature": bad,
	}

	assert.Equal(t, []*Document{bad}, m.Invalid())
	assert.Empty(t, Map{"a.feature": {URI: "a.feature"}}.Invalid())
}

func TestMapURIs_Sorted(t *testing.T) {
	m := Map{
		"b.feature": {URI: "b.feature", Scenarios: []*Scenario{{}, {}}},
		"a.feature": {URI: "a.feature", Scenarios: []*Scenario{{}}},
	}

	assert.Equal(t, []string{"a.feature", "b.feature"}, m.URIs())
	assert.Equal(t, 3, m.ScenarioCount())

	doc, ok := m.Lookup("a.feature")
	assert.True(t, ok)
	assert.Equal(t, "a.feature", doc.URI)

	_, ok = m.Lookup("c.feature")
	assert.False(t, ok)
}
