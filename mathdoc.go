package mathdoc

import (
	"context"

	"github.com/alnah/go-mathdoc/internal/canon"
	"github.com/alnah/go-mathdoc/internal/markup"
	"github.com/alnah/go-mathdoc/internal/pipeline"
	"github.com/alnah/go-mathdoc/internal/repair"
	"github.com/alnah/go-mathdoc/internal/tree"
	"github.com/alnah/go-mathdoc/internal/unimath"
)

// Segment model.
type (
	Segment = markup.Segment
	Kind    = markup.Kind
)

// Segment kinds.
const (
	KindText        = markup.Text
	KindInlineMath  = markup.InlineMath
	KindDisplayMath = markup.DisplayMath
	KindImage       = markup.Image
)

// Document tree model.
type (
	Document         = tree.Document
	Block            = tree.Block
	Inline           = tree.Inline
	Paragraph        = tree.Paragraph
	DisplayMathBlock = tree.DisplayMathBlock
	ImageBlock       = tree.ImageBlock
	Text             = tree.Text
	InlineMath       = tree.InlineMath
	LineBreak        = tree.LineBreak
	Node             = tree.Node
)

// RepairJSON doubles backslashes inside JSON string literals that would
// otherwise decode into control characters or fail to decode, so LaTeX
// commands such as \frac and \times survive encoding/json.
func RepairJSON(raw []byte) []byte {
	return repair.JSONEscapes(raw)
}

// RepairControlChars restores LaTeX commands that were decoded into control
// characters (form feed + "rac" becomes \frac).
func RepairControlChars(s string) string {
	return repair.ControlChars(s)
}

// NormalizeSymbols rewrites Unicode math glyphs to command notation and
// wraps converted prose runs in inline math delimiters.
func NormalizeSymbols(s string) string {
	return unimath.Normalize(s)
}

// Prepare runs the post-decode stages on a document: control-character
// repair, line ending normalization and symbol normalization.
func Prepare(s string) string {
	return preparer.Prepare(context.Background(), s)
}

// Scan splits a flat document into segments. It never fails: unmatched
// delimiters become literal text.
func Scan(s string) []Segment {
	return markup.Scan(s)
}

// Join is the inverse of Scan.
func Join(segs []Segment) string {
	return markup.Join(segs)
}

// Compile builds the document tree edited by a Session.
func Compile(s string) Document {
	return tree.Compile(s)
}

// Serialize writes a document tree back to its flat form.
func Serialize(d Document) string {
	return tree.Serialize(d)
}

// Canonical returns the canonical form used to compare documents.
func Canonical(s string) string {
	return canon.Normalize(s)
}

// Equivalent reports whether two flat documents differ only in
// insignificant spacing and dollar-escaping.
func Equivalent(a, b string) bool {
	return canon.Equivalent(a, b)
}

// Degrade returns a plain-text approximation of a flat document.
func Degrade(flat string) string {
	return pipeline.Degrade(flat)
}

var preparer pipeline.Preparer = &pipeline.FlatPreparer{}
