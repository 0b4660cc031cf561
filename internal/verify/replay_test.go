package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specsync/internal/run"
	"github.com/roach88/specsync/internal/testutil"
)

func checkoutReport(testFile, stepsYAML string) string {
	return fmt.Sprintf(`
suite:
  title: ""
  groups:
    - title: checkout.spec.ts
      location: { file: %[1]q }
      groups:
        - title: Checkout
          location: { file: %[1]q }
          tests:
            - { title: Guest checkout, location: { file: %[1]q, line: 3 } }
            - { title: Gift card checkout, location: { file: %[1]q, line: 9 } }
results:
  - test: { file: %[1]q, title: Gift card checkout }
    steps: []
  - test: { file: %[1]q, title: Guest checkout }
    steps:
%[2]s
`, testFile, stepsYAML)
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "checkout.feature", testutil.CheckoutFeature)
	testFile := filepath.Join(dir, "checkout.spec.ts")

	report, err := run.ParseReport([]byte(checkoutReport(testFile, `
      - { title: "Given user adds item to cart", category: test.step }
      - { title: "When user proceeds to checkout", category: test.step }
      - { title: "Then user completes payment", category: test.step }`)))
	require.NoError(t, err)

	summary, err := Replay(context.Background(), NewReporter(), report)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "Gift card checkout", summary.Outcomes[0].Test.Title, "completion order is kept")
}

func TestReplay_FailuresStayInSummary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "checkout.feature", testutil.CheckoutFeature)
	testFile := filepath.Join(dir, "checkout.spec.ts")

	report, err := run.ParseReport([]byte(checkoutReport(testFile, `
      - { title: "Given user adds item to cart", category: test.step }`)))
	require.NoError(t, err)

	summary, err := Replay(context.Background(), NewReporter(), report)
	require.NoError(t, err)
	require.Len(t, summary.Failures(), 1)
	assert.True(t, IsCountMismatch(summary.Failures()[0].Err))
}

func TestReplay_BrokenFeatureFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "checkout.feature", "garbage\n")
	testFile := filepath.Join(dir, "checkout.spec.ts")

	report, err := run.ParseReport([]byte(checkoutReport(testFile, "      []")))
	require.NoError(t, err)

	summary, err := Replay(context.Background(), NewReporter(), report)
	require.Error(t, err)
	assert.Nil(t, summary)
}
