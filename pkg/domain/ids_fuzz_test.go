package domain

import (
	"testing"
	"time"
)

// FuzzParseScrollID checks that parsing never panics and that anything it
// accepts is returned unchanged.
func FuzzParseScrollID(f *testing.F) {
	f.Add(NewScrollID(time.Unix(0, 0)).String())
	f.Add("")
	f.Add("scroll_faa_1_zzzzzzzz")
	f.Add("scroll_faa_99999999999999999999_deadbeef")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseScrollID(input)
		if err == nil && id.String() != input {
			t.Fatalf("accepted %q but returned %q", input, id)
		}
	})
}
