package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-mathdoc/internal/repair"
	"github.com/alnah/go-mathdoc/internal/unimath"
)

// Slot placeholders use Unicode Private Use Area characters.
// They pass through Goldmark unchanged, so formulas and images are
// substituted after HTML generation without html.WithUnsafe().
const (
	SlotStartPlaceholder = "\uE000" // U+E000: Private Use Area start
	SlotEndPlaceholder   = "\uE001" // U+E001: Private Use Area end
)

// Precompiled regex patterns.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Placeholder characters smuggled in through content
	placeholderChars = regexp.MustCompile(`[\x{E000}\x{E001}]`)
)

// Preparer defines the contract for flat-document preparation.
type Preparer interface {
	Prepare(ctx context.Context, content string) string
}

// FlatPreparer repairs and normalizes decoded content before it is stored
// or shown.
type FlatPreparer struct{}

// Compile-time interface check.
var _ Preparer = (*FlatPreparer)(nil)

// Prepare applies all transformations in order: control-character repair
// (which must see raw "\r" before line endings are touched), line-ending
// normalization, then Unicode glyph normalization.
func (p *FlatPreparer) Prepare(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = repair.ControlChars(content)
	content = normalizeLineEndings(content)
	content = unimath.Normalize(content)
	return content
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// placeholder returns the marker for slot i.
func placeholder(i int) string {
	return SlotStartPlaceholder + strconv.Itoa(i) + SlotEndPlaceholder
}

// stripPlaceholders replaces placeholder characters found in content so
// they cannot collide with generated slots.
func stripPlaceholders(content string) string {
	if !strings.ContainsAny(content, SlotStartPlaceholder+SlotEndPlaceholder) {
		return content
	}
	return placeholderChars.ReplaceAllString(content, "\uFFFD")
}

// fillSlots replaces slot placeholders with rendered HTML. Block slots are
// matched together with the paragraph Goldmark wraps them in.
func fillSlots(htmlContent string, slots []slot, rendered []string) string {
	if len(slots) == 0 {
		return htmlContent
	}

	pairs := make([]string, 0, 4*len(slots))
	for i, s := range slots {
		ph := placeholder(i)
		if s.block {
			pairs = append(pairs, "<p>"+ph+"</p>", rendered[i])
		}
		pairs = append(pairs, ph, rendered[i])
	}
	return strings.NewReplacer(pairs...).Replace(htmlContent)
}
