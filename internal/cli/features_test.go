package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures_Text(t *testing.T) {
	out, err := execute(t, NewFeaturesCommand(newTestRootOptions("text")), "testdata/checkout/checkout.feature")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "features", []byte(out))
}

func TestFeatures_JSON(t *testing.T) {
	out, err := execute(t, NewFeaturesCommand(newTestRootOptions("json")),
		"testdata/checkout/checkout.feature", "./testdata/checkout/checkout.feature")
	require.NoError(t, err)

	var resp struct {
		Data []FeatureDoc `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1, "paths are deduplicated after cleaning")

	doc := resp.Data[0]
	assert.Equal(t, "Checkout", doc.Feature)
	require.Len(t, doc.Scenarios, 2)
	assert.Equal(t, "Gift card checkout", doc.Scenarios[1].Name)
	assert.Equal(t, []string{"@skip"}, doc.Scenarios[1].Tags)
	assert.Equal(t, []string{"user adds item to cart", "user redeems a gift card"}, doc.Scenarios[1].Steps)
}

func TestFeatures_ParseError(t *testing.T) {
	out, err := execute(t, NewFeaturesCommand(newTestRootOptions("text")), "testdata/broken/broken.feature")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]")
}

func TestFeatures_DuplicateScenario(t *testing.T) {
	out, err := execute(t, NewFeaturesCommand(newTestRootOptions("text")),
		"testdata/checkout/checkout.feature", "testdata/duplicate/shop.feature")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]: invalid feature files")
	assert.Contains(t, out, `duplicate scenario "Buy"`)
	assert.NotContains(t, out, "checkout.feature")
}

func TestFeatures_RequiresArgs(t *testing.T) {
	_, err := execute(t, NewFeaturesCommand(newTestRootOptions("text")))
	assert.Error(t, err)
}
