// Package run models what the test-execution engine reports about a run:
// the tree of test groups, the tests inside them, and each test's result
// with the steps it executed.
//
// Engines hand this data to the verifier either live, through the
// verify.Reporter lifecycle hooks, or after the fact as a run report file.
//
// # Report Format
//
// Reports are YAML (or JSON) documents:
//
//	suite:
//	  groups:
//	    - title: Checkout
//	      location: { file: tests/checkout.spec.ts }
//	      tests:
//	        - title: Guest checkout
//	          location: { file: tests/checkout.spec.ts, line: 3 }
//	results:
//	  - test: { file: tests/checkout.spec.ts, title: Guest checkout }
//	    status: passed
//	    steps:
//	      - { title: "Given user adds item to cart", category: test.step }
//
// Unknown fields are rejected so typos surface immediately.
package run
