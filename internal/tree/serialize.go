package tree

import (
	"strings"

	"github.com/alnah/go-mathdoc/internal/markup"
)

// Serialize writes a tree back to a flat document. Blocks are separated by
// a blank line; dollars in text are escaped.
func Serialize(d Document) string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if s, ok := serializeBlock(b); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func serializeBlock(b Block) (string, bool) {
	switch b := b.(type) {
	case *Paragraph:
		if b == nil || len(b.Inlines) == 0 {
			return "", false
		}
		var sb strings.Builder
		for _, in := range b.Inlines {
			switch in := in.(type) {
			case *Text:
				sb.WriteString(markup.EscapeText(in.Value))
			case *InlineMath:
				// A trailing backslash would escape the opening dollar.
				if strings.HasSuffix(sb.String(), `\`) {
					sb.WriteByte(' ')
				}
				sb.WriteString(markup.NewInlineMath(in.LaTeX).Markup())
			case *LineBreak:
				sb.WriteByte('\n')
			}
		}
		return sb.String(), true
	case *DisplayMathBlock:
		return markup.NewDisplayMath(b.LaTeX).Markup(), true
	case *ImageBlock:
		return markup.ImageMarker(b.Src, b.Alt), true
	default:
		return "", false
	}
}
