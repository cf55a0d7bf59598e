// Package repair restores command tokens that JSON decoding destroys.
//
// Generated content embeds markup such as `$\frac{3}{4}$` in JSON string
// fields without escaping the backslash. A standards-compliant decoder then
// reads `\f` as a form feed and the command is lost. JSONEscapes fixes the raw
// JSON before decoding; ControlChars repairs text that was already decoded.
package repair

import (
	"bytes"

	"github.com/alnah/go-mathdoc/internal/commands"
)

// JSONEscapes rewrites raw JSON text so that decoding preserves command
// tokens inside string literals. A backslash is doubled when it starts a
// known command that collides with a JSON escape letter, or when it is not
// a valid JSON escape at all. Names that are also prose words (\to, \ne)
// are commands only between $ delimiters of the same literal. Legitimate escapes (\" \\ \/ \uXXXX and
// control escapes that do not start a command) are copied unchanged.
//
// Never fails: an unterminated literal passes its remainder through.
func JSONEscapes(raw []byte) []byte {
	if bytes.IndexByte(raw, '\\') < 0 {
		return raw
	}

	out := make([]byte, 0, len(raw)+len(raw)/16)
	inString := false
	inMath := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if !inString {
			out = append(out, c)
			if c == '"' {
				inString = true
				inMath = false
			}
			continue
		}

		switch c {
		case '"':
			inString = false
			out = append(out, c)
		case '\\':
			if i+1 >= len(raw) {
				out = append(out, c)
				continue
			}
			if isJSONEscape(raw[i+1:], inMath) {
				out = append(out, c, raw[i+1])
				i++
				continue
			}
			// The escaped byte is copied as is: an escaped $ is no delimiter.
			out = append(out, '\\', '\\', raw[i+1])
			i++
		default:
			if n := delimiterLen(raw, i); n > 0 {
				inMath = !inMath
				out = append(out, raw[i:i+n]...)
				i += n - 1
				continue
			}
			out = append(out, c)
		}
	}

	return out
}

// JSONEscapesString is JSONEscapes for string input.
func JSONEscapesString(raw string) string {
	return string(JSONEscapes([]byte(raw)))
}

// isJSONEscape reports whether the bytes following a backslash form a JSON
// escape that must be kept as is. rest is never empty.
func isJSONEscape(rest []byte, inMath bool) bool {
	switch c := rest[0]; {
	case c == '"' || c == '\\' || c == '/':
		return true
	case c == 'u':
		return len(rest) >= 5 && isHex(rest[1]) && isHex(rest[2]) && isHex(rest[3]) && isHex(rest[4])
	case commands.IsEscapeLetter(c):
		switch commands.Classify(string(letterRun(rest))) {
		case commands.AnyContext:
			return false
		case commands.MathOnly:
			return !inMath
		default:
			return true
		}
	default:
		return false
	}
}

func letterRun(b []byte) []byte {
	n := 0
	for n < len(b) && commands.IsLetter(b[n]) {
		n++
	}
	return b[:n]
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// delimiterLen returns the length of the math delimiter at s[i]: 2 for $$,
// 1 for $, 0 otherwise.
func delimiterLen[T ~string | ~[]byte](s T, i int) int {
	if s[i] != '$' {
		return 0
	}
	if i+1 < len(s) && s[i+1] == '$' {
		return 2
	}
	return 1
}
