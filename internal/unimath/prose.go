package unimath

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alnah/go-mathdoc/internal/commands"
	"github.com/alnah/go-mathdoc/internal/markup"
)

type tokenKind int

const (
	tokOther tokenKind = iota
	tokSpace
	tokWord
	tokNumber
	tokOperator
	tokOpen
	tokClose
	tokGlyph
)

// glyphRole says how a glyph binds to single-letter neighbors.
type glyphRole int

const (
	roleInfix   glyphRole = iota // × ≤ → ∈
	rolePrefix                   // √ ∑ ∫ ∀
	rolePostfix                  // ° ²
	roleOperand                  // π ∞ ½
)

const (
	proseOperators = "+-*/=<>^_|"
	prefixGlyphs   = "√∑∏∫∂∇¬∀∃"
	postfixGlyphs  = "°¹²³"
	operandGlyphs  = "∞∅½⅓⅔¼¾"
)

type token struct {
	kind tokenKind
	text string
	role glyphRole
}

// Prose wraps the glyph-bearing runs of a prose string in inline math.
//
// A run is a maximal sequence of numbers, operators, brackets, glyphs and
// single-letter variables, with interior spaces kept. A single letter joins
// a run only when it touches a number, glyph or bracket, or sits next to an
// operator or a glyph that binds toward it. Runs without a glyph, and all
// other text, come back untouched.
func Prose(text string) []markup.Segment {
	toks := tokenize(text)

	var out []markup.Segment
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, markup.NewText(plain.String()))
			plain.Reset()
		}
	}

	for i := 0; i < len(toks); {
		if !compatible(toks, i) {
			plain.WriteString(toks[i].text)
			i++
			continue
		}

		j := i
		for j < len(toks) && (toks[j].kind == tokSpace || compatible(toks, j)) {
			j++
		}

		start, end := trimRun(toks, i, j)
		if !hasGlyphToken(toks[start:end]) {
			writeTokens(&plain, toks[i:j])
			i = j
			continue
		}

		writeTokens(&plain, toks[i:start])
		flush()
		var run strings.Builder
		writeTokens(&run, toks[start:end])
		out = append(out, markup.NewInlineMath(Math(run.String())))
		writeTokens(&plain, toks[end:j])
		i = j
	}
	flush()

	return out
}

func tokenize(s string) []token {
	rs := []rune(s)
	toks := make([]token, 0, len(rs)/2)

	for i := 0; i < len(rs); {
		r := rs[i]
		j := i + 1
		tok := token{kind: tokOther}

		switch {
		case commands.IsGlyph(r):
			tok = token{kind: tokGlyph, role: roleOf(r)}
		case r == ' ' || r == '\t':
			for j < len(rs) && (rs[j] == ' ' || rs[j] == '\t') {
				j++
			}
			tok.kind = tokSpace
		case unicode.IsDigit(r):
			j = numberEnd(rs, i)
			tok.kind = tokNumber
		case unicode.IsLetter(r):
			for j < len(rs) && isPlainLetter(rs[j]) {
				j++
			}
			tok.kind = tokWord
		case strings.ContainsRune(proseOperators, r):
			tok.kind = tokOperator
		case r == '(' || r == '[':
			tok.kind = tokOpen
		case r == ')' || r == ']':
			tok.kind = tokClose
		}

		tok.text = string(rs[i:j])
		toks = append(toks, tok)
		i = j
	}

	return toks
}

func roleOf(r rune) glyphRole {
	switch {
	case strings.ContainsRune(prefixGlyphs, r):
		return rolePrefix
	case strings.ContainsRune(postfixGlyphs, r):
		return rolePostfix
	case strings.ContainsRune(operandGlyphs, r), unicode.In(r, unicode.Greek):
		return roleOperand
	default:
		return roleInfix
	}
}

func compatible(toks []token, i int) bool {
	switch t := toks[i]; t.kind {
	case tokNumber, tokOperator, tokOpen, tokClose, tokGlyph:
		return true
	case tokWord:
		return utf8.RuneCountInString(t.text) == 1 && isVariable(toks, i)
	default:
		return false
	}
}

// isVariable reports whether the single-letter word at i reads as a variable.
func isVariable(toks []token, i int) bool {
	if i > 0 && touches(toks[i-1].kind, tokOpen) {
		return true
	}
	if i+1 < len(toks) && touches(toks[i+1].kind, tokClose, tokOpen) {
		return true
	}
	if l, ok := neighbor(toks, i, -1); ok && bindsRight(l) {
		return true
	}
	if r, ok := neighbor(toks, i, 1); ok && bindsLeft(r) {
		return true
	}
	return false
}

// touches reports whether a directly adjacent token of kind k holds the
// letter inside a formula: numbers and glyphs always do, brackets only on
// the listed sides.
func touches(k tokenKind, brackets ...tokenKind) bool {
	if k == tokNumber || k == tokGlyph {
		return true
	}
	for _, b := range brackets {
		if k == b {
			return true
		}
	}
	return false
}

// neighbor returns the nearest non-space token in direction dir.
func neighbor(toks []token, i, dir int) (token, bool) {
	for j := i + dir; j >= 0 && j < len(toks); j += dir {
		if toks[j].kind != tokSpace {
			return toks[j], true
		}
	}
	return token{}, false
}

func bindsRight(t token) bool {
	return t.kind == tokOperator || (t.kind == tokGlyph && (t.role == roleInfix || t.role == rolePrefix))
}

func bindsLeft(t token) bool {
	return t.kind == tokOperator || (t.kind == tokGlyph && (t.role == roleInfix || t.role == rolePostfix))
}

// trimRun drops edge spaces and unbalanced edge brackets from toks[start:end].
func trimRun(toks []token, start, end int) (int, int) {
	for start < end {
		switch {
		case toks[start].kind == tokSpace:
			start++
		case toks[end-1].kind == tokSpace:
			end--
		case toks[end-1].kind == tokClose && bracketBalance(toks[start:end]) < 0:
			end--
		case toks[start].kind == tokOpen && bracketBalance(toks[start:end]) > 0:
			start++
		default:
			return start, end
		}
	}
	return start, end
}

// bracketBalance returns openers minus closers.
func bracketBalance(toks []token) int {
	n := 0
	for _, t := range toks {
		switch t.kind {
		case tokOpen:
			n++
		case tokClose:
			n--
		}
	}
	return n
}

func hasGlyphToken(toks []token) bool {
	for _, t := range toks {
		if t.kind == tokGlyph {
			return true
		}
	}
	return false
}

func writeTokens(b *strings.Builder, toks []token) {
	for _, t := range toks {
		b.WriteString(t.text)
	}
}
