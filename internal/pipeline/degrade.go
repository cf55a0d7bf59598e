package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/alnah/go-mathdoc/internal/commands"
	"github.com/alnah/go-mathdoc/internal/markup"
)

// maxFracPasses bounds the inside-out rewriting of nested fractions.
const maxFracPasses = 8

// Precompiled regex patterns for the plain-text fallback.
var (
	// \frac{a}{b} whose arguments contain no braces
	simpleFrac = regexp.MustCompile(`\\[dt]?frac\{([^{}]*)\}\{([^{}]*)\}`)

	// Command token with one optional trailing space
	commandToken = regexp.MustCompile(`\\([A-Za-z]+) ?`)

	// Spacing commands
	spacingToken = regexp.MustCompile(`\\[,;:! ]`)

	// ^{...} with a brace-free argument, or ^ followed by one character
	superscriptGroup = regexp.MustCompile(`\^(?:\{([^{}]*)\}|([0-9A-Za-z+\-]))`)
)

// DegradedTypesetter shows formulas as plain text. It never fails and
// needs no engine.
type DegradedTypesetter struct{}

// Compile-time interface check.
var _ Typesetter = DegradedTypesetter{}

// Typeset returns the plain-text fallback wrapped in a math-fallback element.
func (DegradedTypesetter) Typeset(_ context.Context, latex string, _ bool) (string, error) {
	return fallbackHTML(DegradeLaTeX(latex)), nil
}

// Degrade converts a flat document to plain text: delimiters are dropped,
// formulas are approximated with Unicode, and images become their alt text.
func Degrade(flat string) string {
	var b strings.Builder
	for _, seg := range markup.Scan(flat) {
		switch seg.Kind {
		case markup.InlineMath, markup.DisplayMath:
			b.WriteString(DegradeLaTeX(seg.Text))
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// DegradeLaTeX approximates LaTeX source with plain text: brace-free
// fractions become a/b, commands become glyphs from the shared table,
// superscripts use superscript characters where they exist, and grouping
// braces are removed.
func DegradeLaTeX(latex string) string {
	s := latex
	for range maxFracPasses {
		next := simpleFrac.ReplaceAllString(s, "$1/$2")
		if next == s {
			break
		}
		s = next
	}

	s = spacingToken.ReplaceAllString(s, " ")
	s = commandToken.ReplaceAllStringFunc(s, degradeCommand)
	s = superscriptGroup.ReplaceAllStringFunc(s, degradeSuperscript)
	s = stripBraces(s)

	return strings.TrimSpace(s)
}

func degradeCommand(tok string) string {
	m := commandToken.FindStringSubmatch(tok)
	name := m[1]
	switch {
	case commands.IsInvisible(name):
		return ""
	default:
		if sym, ok := commands.Symbol(name); ok {
			return sym
		}
		return name
	}
}

func degradeSuperscript(tok string) string {
	m := superscriptGroup.FindStringSubmatch(tok)
	arg := m[1] + m[2]
	if arg == "°" {
		return arg
	}

	var b strings.Builder
	for _, r := range arg {
		sup, ok := commands.Superscript(r)
		if !ok {
			return "^" + arg
		}
		b.WriteRune(sup)
	}
	return b.String()
}

// stripBraces removes grouping braces; \{ and \} become literal braces.
func stripBraces(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '}'):
			b.WriteByte(s[i+1])
			i++
		case c == '{' || c == '}':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
