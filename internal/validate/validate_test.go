package validate

import (
	"math"
	"testing"
)

func TestSafeInt(t *testing.T) {
	cases := []struct {
		in       string
		fallback int
		want     int
	}{
		{"115200", 0, 115200},
		{"", 115200, 115200},
		{"abc", 7, 7},
		{" -12 ", 0, -12},
		{"14", 0, 14},
		{"12abc", 0, 12},
		{"-", 3, 3},
		{"+5", 0, 5},
		{"99999999999999999999", 0, math.MaxInt},
		{"-99999999999999999999", 0, math.MinInt},
	}
	for _, c := range cases {
		if got := SafeInt(c.in, c.fallback); got != c.want {
			t.Errorf("SafeInt(%q, %d) = %d, want %d", c.in, c.fallback, got, c.want)
		}
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<b>"Tom's" & co</b>`)
	want := "&lt;b&gt;&quot;Tom&#039;s&quot; &amp; co&lt;/b&gt;"
	if got != want {
		t.Fatalf("EscapeHTML = %q, want %q", got, want)
	}
}

func TestSanitizeStripsEscapes(t *testing.T) {
	got := Sanitize("GAMES\x1b[31m.DSK\x1b]0;title\x07\x00ok\tdone")
	if got != "GAMES.DSK?ok done" {
		t.Fatalf("Sanitize = %q", got)
	}
}

func TestSanitizeKeepsUnicode(t *testing.T) {
	if got := Sanitize("disk – ü"); got != "disk – ü" {
		t.Fatalf("Sanitize altered printable unicode: %q", got)
	}
}

func TestPrintable(t *testing.T) {
	got := Printable([]int{'O', 'K', 13, 10, 0, 200, 'x', 300})
	if got != "OK\n\n..x" {
		t.Fatalf("Printable = %q", got)
	}
}
