// Package validate holds small parsing and sanitizing helpers shared by every view.
package validate

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SafeInt parses a base-10 integer from user text, returning fallback when
// the text is empty or not a number. Leading digits are accepted the way a
// lenient form field would ("12abc" is 12). Values too large for an int
// clamp to math.MaxInt or math.MinInt.
func SafeInt(text string, fallback int) int {
	s := strings.TrimSpace(text)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	if err != nil {
		return fallback
	}
	return n
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML special characters.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// Sanitize makes an untrusted device string safe to embed in styled terminal
// output: escape sequences are dropped and other control characters become '?'.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := rune(s[i]), 1
		if r >= 0x80 {
			r, size = utf8.DecodeRuneInString(s[i:])
		}
		switch {
		case r == 0x1b:
			i += escapeLen(s[i:])
			continue
		case r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r), r == utf8.RuneError && size == 1:
			b.WriteByte('?')
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// Printable converts the device's raw terminal bytes to display text:
// CR and LF become newlines, printable ASCII is kept, everything else is '.'.
// Values outside a byte are ignored.
func Printable(buf []int) string {
	var b strings.Builder
	b.Grow(len(buf))
	for _, v := range buf {
		switch {
		case v < 0 || v > 255:
			continue
		case v == '\n' || v == '\r':
			b.WriteByte('\n')
		case v >= 32 && v <= 126:
			b.WriteByte(byte(v))
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// escapeLen returns the length of the escape sequence starting at s[0].
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[':
		// CSI: parameters then one final byte in 0x40-0x7e
		for i := 2; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
		return len(s)
	case ']':
		// OSC: terminated by BEL or ST
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return i + 1
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return len(s)
	}
	return 2
}
