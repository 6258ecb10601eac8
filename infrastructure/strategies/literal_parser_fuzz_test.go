package strategies

import (
	"context"
	"strings"
	"testing"
)

// FuzzParseLiteral checks that the parser never panics and that every
// literal it accepts compares equal to itself.
func FuzzParseLiteral(f *testing.F) {
	f.Add("[1, 2, 3]")
	f.Add(`{"a": [1.0, true, null], 'b': (1,)}`)
	f.Add("{1, 2, 2}")
	f.Add("-1.5e-3")
	f.Add(`"🚀"`)
	f.Add("[")
	f.Add("((((((1))))))")
	f.Add(strings.Repeat("[", 100))
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		l, err := parseLiteral(context.Background(), input, 64)
		if err != nil {
			return
		}

		lc := literalComparer{ctx: context.Background()}
		reason, err := lc.compare(nil, l, l)
		if err != nil {
			t.Fatalf("compare(%q) with itself returned error: %v", input, err)
		}
		if reason != "" {
			t.Errorf("literal %q differs from itself: %s", input, reason)
		}
		if canonicalKey(l) != canonicalKey(l) {
			t.Errorf("canonical key of %q is unstable", input)
		}
	})
}
