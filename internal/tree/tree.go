// Package tree converts flat documents to the block/inline tree hosted by
// the editor, and back.
package tree

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block
}

// Block is a top-level node: *Paragraph, *DisplayMathBlock or *ImageBlock.
type Block interface {
	isBlock()
}

// Inline is a paragraph child: *Text, *InlineMath or *LineBreak.
type Inline interface {
	isInline()
}

// Paragraph holds inline content.
type Paragraph struct {
	Inlines []Inline
}

// DisplayMathBlock is a centered formula on its own line.
type DisplayMathBlock struct {
	LaTeX string
}

// ImageBlock is an image on its own line.
type ImageBlock struct {
	Src string
	Alt string
}

// Text is literal prose. Value holds display characters; a dollar sign in
// Value is a literal dollar.
type Text struct {
	Value string
}

// InlineMath is a formula inside a paragraph.
type InlineMath struct {
	LaTeX string
}

// LineBreak is a soft line break inside a paragraph.
type LineBreak struct{}

func (*Paragraph) isBlock()        {}
func (*DisplayMathBlock) isBlock() {}
func (*ImageBlock) isBlock()       {}

func (*Text) isInline()       {}
func (*InlineMath) isInline() {}
func (*LineBreak) isInline()  {}

// Compile-time interface checks.
var (
	_ Block  = (*Paragraph)(nil)
	_ Block  = (*DisplayMathBlock)(nil)
	_ Block  = (*ImageBlock)(nil)
	_ Inline = (*Text)(nil)
	_ Inline = (*InlineMath)(nil)
	_ Inline = (*LineBreak)(nil)
)

// Node is a display view of a block or inline, suitable for YAML output.
type Node struct {
	Type     string `yaml:"type"`
	Value    string `yaml:"value,omitempty"`
	Src      string `yaml:"src,omitempty"`
	Children []Node `yaml:"children,omitempty"`
}

// Outline returns the document as a list of display nodes.
func (d Document) Outline() []Node {
	nodes := make([]Node, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		switch b := b.(type) {
		case *Paragraph:
			n := Node{Type: "paragraph"}
			for _, in := range b.Inlines {
				n.Children = append(n.Children, inlineNode(in))
			}
			nodes = append(nodes, n)
		case *DisplayMathBlock:
			nodes = append(nodes, Node{Type: "display-math", Value: b.LaTeX})
		case *ImageBlock:
			nodes = append(nodes, Node{Type: "image", Value: b.Alt, Src: b.Src})
		}
	}
	return nodes
}

func inlineNode(in Inline) Node {
	switch in := in.(type) {
	case *Text:
		return Node{Type: "text", Value: in.Value}
	case *InlineMath:
		return Node{Type: "inline-math", Value: in.LaTeX}
	default:
		return Node{Type: "line-break"}
	}
}
