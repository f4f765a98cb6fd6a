package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength bounds entry titles, in bytes, so that keys stay well under
// common file name limits.
const MaxTitleLength = 128

// Key returns the canonical storage key for a title: the trimmed title,
// case folded and NFC normalised. "Python", "python" and " PYTHON " share a
// key while "C", "C++" and "C#" do not.
//
// Keys double as file names, so separators, NUL and control characters are
// rejected along with "." and "..".
func Key(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", fmt.Errorf("%w: title is empty", ErrInvalidTitle)
	}
	if len(t) > MaxTitleLength {
		return "", fmt.Errorf("%w: title longer than %d bytes", ErrInvalidTitle, MaxTitleLength)
	}

	key := fold(t)
	if key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	for _, r := range key {
		if r == '/' || r == '\\' || r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidTitle, title, r)
		}
	}
	return key, nil
}

// SameTitle reports whether two titles address the same entry.
func SameTitle(a, b string) bool {
	ka, err := Key(a)
	if err != nil {
		return false
	}
	kb, err := Key(b)
	if err != nil {
		return false
	}
	return ka == kb
}

// fold case folds s for comparisons. Casers are stateful, so each call gets
// its own.
func fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}
