package feature

import "golang.org/x/text/unicode/norm"

// TextEqual compares a declared text (feature name, scenario name, step)
// with its executed counterpart.
type TextEqual func(a, b string) bool

// ExactText reports whether a and b are byte-for-byte equal. It is the
// default comparison.
func ExactText(a, b string) bool {
	return a == b
}

// SameText reports whether a and b are the same text once both are in
// Unicode NFC. Editors and test sources disagree on composed versus
// decomposed accents; the bytes may differ while the text does not.
func SameText(a, b string) bool {
	if a == b {
		return true
	}
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// TextEqualFor returns SameText when normalize is set and ExactText
// otherwise.
func TextEqualFor(normalize bool) TextEqual {
	if normalize {
		return SameText
	}
	return ExactText
}
