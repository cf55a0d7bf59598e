// Package canon decides whether two flat documents are the same document.
//
// The editor rewrites spacing and escaping when it serializes its tree, so
// comparing raw strings would flag every opened document as modified.
// Normalize maps both sides to a canonical form first.
package canon

import (
	"regexp"
	"strings"

	"github.com/alnah/go-mathdoc/internal/markup"
)

// extraBreaks matches three or more consecutive line breaks.
var extraBreaks = regexp.MustCompile(`\n{3,}`)

// Normalize returns the canonical form of a flat document:
//   - images and display math stand alone, separated by exactly one blank line;
//   - runs of three or more line breaks in text become a blank line;
//   - leading and trailing line breaks are trimmed;
//   - every literal dollar is written as `\$`.
//
// Math content is never touched. Normalize is idempotent.
func Normalize(s string) string {
	segs := markup.Scan(s)

	var b strings.Builder
	b.Grow(len(s) + 8)
	afterBlock := false

	for i, seg := range segs {
		if seg.IsBlock() {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(seg.Markup())
			afterBlock = true
			continue
		}

		if seg.Kind == markup.InlineMath {
			writeSeparated(&b, seg.Markup(), afterBlock)
			afterBlock = false
			continue
		}

		text := seg.Text
		if i == 0 || segs[i-1].IsBlock() {
			text = strings.TrimLeft(text, "\n")
		}
		if i == len(segs)-1 || segs[i+1].IsBlock() {
			text = strings.TrimRight(text, "\n")
		}
		if text == "" {
			continue
		}
		text = extraBreaks.ReplaceAllString(text, "\n\n")
		writeSeparated(&b, markup.EscapeText(text), afterBlock)
		afterBlock = false
	}

	return b.String()
}

// Equivalent reports whether a and b have the same canonical form.
func Equivalent(a, b string) bool {
	return a == b || Normalize(a) == Normalize(b)
}

func writeSeparated(b *strings.Builder, s string, afterBlock bool) {
	if afterBlock {
		b.WriteString("\n\n")
	}
	b.WriteString(s)
}
