// Package markup tokenizes flat documents into typed segments and writes
// them back.
//
// A flat document is prose with `$inline$` math, `$$display$$` math and
// `![alt](src)` images. `\$` is a literal dollar. Scan and Join are exact
// inverses: Join(Scan(s)) == s for every string, malformed input included.
package markup

import "strings"

// Kind identifies the type of a segment.
type Kind int

// Segment kinds.
const (
	Text Kind = iota
	InlineMath
	DisplayMath
	Image
)

// String returns the kind name used in diagnostics and CLI output.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case InlineMath:
		return "inline-math"
	case DisplayMath:
		return "display-math"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

// Segment is a typed span of a flat document.
//
// For Text, Text holds the display value with escaped dollars resolved.
// For math kinds, Text holds the LaTeX source between the delimiters.
// For Image, Text holds the alt text and Src the URL.
type Segment struct {
	Kind Kind
	Text string
	Src  string

	// Verbatim marks a Text segment holding an unmatched delimiter exactly
	// as it appeared in the source. It is written back without escaping.
	Verbatim bool
}

// NewText returns a text segment.
func NewText(s string) Segment { return Segment{Kind: Text, Text: s} }

// NewInlineMath returns an inline math segment.
func NewInlineMath(latex string) Segment { return Segment{Kind: InlineMath, Text: latex} }

// NewDisplayMath returns a display math segment.
func NewDisplayMath(latex string) Segment { return Segment{Kind: DisplayMath, Text: latex} }

// NewImage returns an image segment.
func NewImage(src, alt string) Segment { return Segment{Kind: Image, Text: alt, Src: src} }

// Markup returns the flat-document form of the segment.
func (s Segment) Markup() string {
	switch s.Kind {
	case InlineMath:
		return "$" + s.Text + "$"
	case DisplayMath:
		return "$$" + s.Text + "$$"
	case Image:
		return ImageMarker(s.Src, s.Text)
	default:
		if s.Verbatim {
			return s.Text
		}
		return EscapeText(s.Text)
	}
}

// IsBlock reports whether the segment renders as its own block.
func (s Segment) IsBlock() bool {
	return s.Kind == DisplayMath || s.Kind == Image
}

// Join writes segments back to a flat document. Join(Scan(s)) == s.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.Markup())
	}
	return b.String()
}

// JoinEscaped is Join with every literal dollar escaped, including those
// of verbatim segments. The result scans to the same segments with no
// unmatched delimiters left.
func JoinEscaped(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		seg.Verbatim = false
		b.WriteString(seg.Markup())
	}
	return b.String()
}

// EscapeText escapes literal dollars so they are never read as delimiters.
func EscapeText(s string) string {
	return strings.ReplaceAll(s, "$", `\$`)
}

// ImageMarker returns the image reference syntax for src and alt.
func ImageMarker(src, alt string) string {
	return "![" + alt + "](" + src + ")"
}
