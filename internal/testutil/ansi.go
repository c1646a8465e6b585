// Package testutil holds helpers for tests that inspect terminal output.
package testutil

import (
	"regexp"
	"strings"
	"testing"
)

// csi matches ANSI control sequences such as "\x1b[1;32m" or "\x1b[2K".
var csi = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI control sequences. Carriage returns written
// by the spinner are kept.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}

// AssertContains fails t for every want missing from output once ANSI codes
// are stripped.
func AssertContains(t testing.TB, output string, wants ...string) {
	t.Helper()
	plain := StripAnsiCodes(output)
	for _, want := range wants {
		if !strings.Contains(plain, want) {
			t.Errorf("output should contain %q, got:\n%s", want, plain)
		}
	}
}
