package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-mathdoc/internal/tree"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// Typesetter turns LaTeX source into HTML.
type Typesetter interface {
	Typeset(ctx context.Context, latex string, display bool) (string, error)
}

// SegmentError reports a formula that could not be typeset.
type SegmentError struct {
	Index   int // ordinal of the formula in the document, from 0
	LaTeX   string
	Display bool
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("formula %d %q: %v", e.Index, e.LaTeX, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// HTMLRenderer renders flat documents to HTML fragments.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer whose Goldmark instance only
// knows paragraphs: no headings, lists, emphasis or links, so prose is
// shown exactly as written.
func NewHTMLRenderer() *HTMLRenderer {
	p := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 100)),
	)
	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Single line breaks become <br>
			html.WithXHTML(),
			html.WithWriter(literalWriter{html.NewWriter()}),
		),
	)
	return &HTMLRenderer{md: md}
}

// literalWriter writes text HTML-escaped but otherwise verbatim: no
// backslash escapes or entity references are resolved.
type literalWriter struct {
	html.Writer
}

func (w literalWriter) Write(out util.BufWriter, source []byte) {
	w.RawWrite(out, source)
}

type slotKind int

const (
	slotMath slotKind = iota
	slotImage
)

// slot is a formula or image substituted after Goldmark conversion.
type slot struct {
	kind    slotKind
	block   bool
	latex   string
	display bool
	src     string
	alt     string
}

// Render converts a flat document to an HTML fragment. Formulas go through
// ts; a formula that fails is shown as escaped source in a math-error span,
// reported to onErr (when non-nil), and rendering continues. Only context
// cancellation and conversion failures are returned.
func (r *HTMLRenderer) Render(ctx context.Context, flat string, ts Typesetter, onErr func(*SegmentError)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source, slots := layout(tree.Compile(flat))

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	rendered := make([]string, len(slots))
	formula := 0
	for i, s := range slots {
		if s.kind == slotImage {
			rendered[i] = imageHTML(s.src, s.alt)
			continue
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := ts.Typeset(ctx, s.latex, s.display)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			if onErr != nil {
				onErr(&SegmentError{Index: formula, LaTeX: s.latex, Display: s.display, Err: err})
			}
			out = mathErrorHTML(s.latex, s.display, err)
		} else if s.display {
			out = `<div class="math-display">` + out + `</div>`
		}
		rendered[i] = out
		formula++
	}

	return fillSlots(buf.String(), slots, rendered), nil
}

// RenderDegraded renders with the plain-text fallback for every formula.
func (r *HTMLRenderer) RenderDegraded(ctx context.Context, flat string) (string, error) {
	return r.Render(ctx, flat, DegradedTypesetter{}, nil)
}

// layout builds the Goldmark source for a tree: prose is written as is,
// formulas and images become placeholders. Blocks are separated by a
// blank line so each one is its own Goldmark paragraph.
func layout(doc tree.Document) (string, []slot) {
	var b strings.Builder
	var slots []slot

	add := func(s slot) {
		b.WriteString(placeholder(len(slots)))
		slots = append(slots, s)
	}

	for i, blk := range doc.Blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch blk := blk.(type) {
		case *tree.Paragraph:
			for _, in := range blk.Inlines {
				switch in := in.(type) {
				case *tree.Text:
					b.WriteString(stripPlaceholders(in.Value))
				case *tree.InlineMath:
					add(slot{kind: slotMath, latex: in.LaTeX})
				case *tree.LineBreak:
					b.WriteByte('\n')
				}
			}
		case *tree.DisplayMathBlock:
			add(slot{kind: slotMath, block: true, latex: blk.LaTeX, display: true})
		case *tree.ImageBlock:
			add(slot{kind: slotImage, block: true, src: blk.Src, alt: blk.Alt})
		}
	}

	return b.String(), slots
}
