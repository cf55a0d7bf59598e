package tree

import (
	"regexp"
	"strings"

	"github.com/alnah/go-mathdoc/internal/markup"
)

// paragraphBreak matches a run of two or more line breaks.
var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Compile parses a flat document into a tree.
//
// Images and display math are block-level: the line breaks around them, and
// at the start and end of the document, are absorbed. Text is split into
// paragraphs on runs of two or more line breaks; a single line break is a
// LineBreak inline. Inline math joins the current paragraph. Compile never
// fails; malformed delimiters become literal text.
func Compile(s string) Document {
	segs := markup.Scan(s)
	c := &compiler{}

	for i, seg := range segs {
		switch seg.Kind {
		case markup.DisplayMath:
			c.block(&DisplayMathBlock{LaTeX: seg.Text})
		case markup.Image:
			c.block(&ImageBlock{Src: seg.Src, Alt: seg.Text})
		case markup.InlineMath:
			c.inline(&InlineMath{LaTeX: seg.Text})
		default:
			text := seg.Text
			if i == 0 || segs[i-1].IsBlock() {
				text = strings.TrimLeft(text, "\n")
			}
			if i == len(segs)-1 || segs[i+1].IsBlock() {
				text = strings.TrimRight(text, "\n")
			}
			c.text(text)
		}
	}
	c.endParagraph()

	return Document{Blocks: c.blocks}
}

type compiler struct {
	blocks []Block
	para   *Paragraph
}

func (c *compiler) block(b Block) {
	c.endParagraph()
	c.blocks = append(c.blocks, b)
}

func (c *compiler) inline(in Inline) {
	if c.para == nil {
		c.para = &Paragraph{}
	}
	c.para.Inlines = append(c.para.Inlines, in)
}

func (c *compiler) text(s string) {
	for k, part := range paragraphBreak.Split(s, -1) {
		if k > 0 {
			c.endParagraph()
		}
		for m, line := range strings.Split(part, "\n") {
			if m > 0 {
				c.inline(&LineBreak{})
			}
			if line != "" {
				c.appendText(line)
			}
		}
	}
}

// appendText merges with a preceding Text inline.
func (c *compiler) appendText(s string) {
	if c.para != nil {
		if n := len(c.para.Inlines); n > 0 {
			if prev, ok := c.para.Inlines[n-1].(*Text); ok {
				prev.Value += s
				return
			}
		}
	}
	c.inline(&Text{Value: s})
}

func (c *compiler) endParagraph() {
	if c.para != nil && len(c.para.Inlines) > 0 {
		c.blocks = append(c.blocks, c.para)
	}
	c.para = nil
}
