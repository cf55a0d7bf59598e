// Package unimath converts Unicode math glyphs to canonical command notation.
//
// Generated content often writes "3×4" or "x²" where the editor expects
// `$3\times 4$` and `$x^{2}$`. Normalize rewrites glyphs inside math segments
// in place and wraps glyph-bearing runs of prose in inline math. The
// conversion is idempotent.
package unimath

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-mathdoc/internal/commands"
	"github.com/alnah/go-mathdoc/internal/markup"
)

// Normalize converts every mapped glyph in s to its canonical replacement.
//
// The input is NFC-normalized first. A string with no dollar sign at all
// that contains a command token and no image marker is treated as one formula
// and wrapped whole. Otherwise math segments are converted in place and prose runs are wrapped
// in inline math; when prose changed, stray dollars are escaped so the new
// delimiters never pair with them.
func Normalize(s string) string {
	s = norm.NFC.String(s)

	if !strings.Contains(s, "$") && hasCommand(s) && !hasImage(s) {
		return wrapWhole(s)
	}
	if !hasGlyph(s) {
		return s
	}

	segs := markup.Scan(s)
	out := make([]markup.Segment, 0, len(segs))
	mathChanged, proseChanged := false, false

	for _, seg := range segs {
		switch {
		case seg.Kind == markup.InlineMath || seg.Kind == markup.DisplayMath:
			if latex := Math(seg.Text); latex != seg.Text {
				seg.Text = latex
				mathChanged = true
			}
			out = append(out, seg)
		case seg.Kind == markup.Text && !seg.Verbatim && hasGlyph(seg.Text):
			out = append(out, Prose(seg.Text)...)
			proseChanged = true
		default:
			out = append(out, seg)
		}
	}

	switch {
	case proseChanged:
		return markup.JoinEscaped(out)
	case mathChanged:
		return markup.Join(out)
	default:
		return s
	}
}

// Math replaces every mapped glyph in LaTeX source. A command replacement
// gets a trailing space when a letter or digit follows, and √ takes the
// following number, letter run or parenthesized group as its argument.
func Math(latex string) string {
	if !hasGlyph(latex) {
		return latex
	}

	rs := []rune(latex)
	var b strings.Builder
	b.Grow(len(latex) + 16)

	for i := 0; i < len(rs); i++ {
		r := rs[i]

		if r == '√' {
			if arg, end, ok := radicand(rs, i+1); ok {
				b.WriteString(`\sqrt{`)
				b.WriteString(Math(arg))
				b.WriteByte('}')
				i = end - 1
				continue
			}
		}

		repl, ok := commands.Lookup(r)
		if !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteString(repl)
		if endsWithLetter(repl) && i+1 < len(rs) && isAlnum(rs[i+1]) {
			b.WriteByte(' ')
		}
	}

	return b.String()
}

// radicand returns the argument of a √ written at rs[i:], and the index just
// past it.
func radicand(rs []rune, i int) (arg string, end int, ok bool) {
	if i >= len(rs) {
		return "", 0, false
	}

	switch r := rs[i]; {
	case r == '(':
		depth := 0
		for j := i; j < len(rs); j++ {
			switch rs[j] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return string(rs[i+1 : j]), j + 1, true
				}
			}
		}
		return "", 0, false
	case unicode.IsDigit(r):
		j := numberEnd(rs, i)
		return string(rs[i:j]), j, true
	case isPlainLetter(r):
		j := i
		for j < len(rs) && isPlainLetter(rs[j]) {
			j++
		}
		return string(rs[i:j]), j, true
	default:
		return "", 0, false
	}
}

// wrapWhole wraps a delimiter-free string containing commands as a single
// formula. A paragraph break inside forces display math, which may span it.
func wrapWhole(s string) string {
	latex := Math(s)
	if strings.HasSuffix(latex, `\`) {
		latex += " "
	}
	if strings.Contains(latex, "\n\n") {
		return "$$" + latex + "$$"
	}
	return "$" + latex + "$"
}

func hasImage(s string) bool {
	if !strings.Contains(s, "![") {
		return false
	}
	for _, seg := range markup.Scan(s) {
		if seg.Kind == markup.Image {
			return true
		}
	}
	return false
}

func hasGlyph(s string) bool {
	for _, r := range s {
		if commands.IsGlyph(r) {
			return true
		}
	}
	return false
}

// hasCommand reports whether s contains a backslash followed by a letter.
func hasCommand(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\\' && commands.IsLetter(s[i+1]) {
			return true
		}
	}
	return false
}

func endsWithLetter(s string) bool {
	return s != "" && commands.IsLetter(s[len(s)-1])
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isPlainLetter reports whether r is a letter with no glyph mapping.
func isPlainLetter(r rune) bool {
	return unicode.IsLetter(r) && !commands.IsGlyph(r)
}

// numberEnd returns the index past a digit run starting at i. A '.' or ','
// between digits is part of the number.
func numberEnd(rs []rune, i int) int {
	j := i
	for j < len(rs) {
		switch {
		case unicode.IsDigit(rs[j]):
			j++
		case (rs[j] == '.' || rs[j] == ',') && j+1 < len(rs) && unicode.IsDigit(rs[j+1]):
			j += 2
		default:
			return j
		}
	}
	return j
}
