package testutil

import (
	"github.com/roach88/specsync/internal/run"
)

// CheckoutFeature declares the Checkout feature used across package tests.
const CheckoutFeature = `Feature: Checkout

  Scenario: Guest checkout
    Given user adds item to cart
    When user proceeds to checkout
    Then user completes payment

  @skip
  Scenario: Gift card checkout
    Given user redeems a gift card
`

// CheckoutSteps are the executed step titles matching "Guest checkout".
var CheckoutSteps = []string{
	"Given user adds item to cart",
	"When user proceeds to checkout",
	"Then user completes payment",
}

// Suite builds a root group holding one file group per test file, each with a
// describe group titled feature containing the named tests. It mirrors how
// browser test runners nest file and describe blocks.
func Suite(testFile, feature string, tests ...string) (*run.Group, []*run.TestCase) {
	root := run.NewGroup("", "")
	file := root.AddGroup(run.NewGroup(testFile, testFile))
	describe := file.AddGroup(run.NewGroup(feature, testFile))

	cases := make([]*run.TestCase, len(tests))
	for i, title := range tests {
		cases[i] = describe.AddTest(title, testFile, i+2)
	}
	return root, cases
}

// UserSteps returns executed steps with the user-level category.
func UserSteps(titles ...string) []run.ExecutedStep {
	steps := make([]run.ExecutedStep, len(titles))
	for i, title := range titles {
		steps[i] = run.ExecutedStep{Title: title, Category: run.CategoryTestStep}
	}
	return steps
}

// Result wraps steps into a passed test result, surrounded by the hook steps
// engines report around every test.
func Result(steps ...run.ExecutedStep) run.TestResult {
	all := []run.ExecutedStep{{Title: "Before Hooks", Category: "hook"}}
	all = append(all, steps...)
	all = append(all, run.ExecutedStep{Title: "After Hooks", Category: "hook"})
	return run.TestResult{Status: "passed", Steps: all}
}
