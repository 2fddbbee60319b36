// Package linediff renders unified diffs between two text revisions.
package linediff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Adapter implements prcomment.Differ using a line based unified diff.
type Adapter struct{}

// New creates a new line diff adapter.
func New() *Adapter {
	return &Adapter{}
}

// ComputeDiff returns a unified diff of base against head with three lines of
// context, or an empty string when the inputs are identical.
func (a *Adapter) ComputeDiff(baseName, headName string, base, head []byte) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(base)),
		B:        difflib.SplitLines(string(head)),
		FromFile: baseName,
		ToFile:   headName,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
