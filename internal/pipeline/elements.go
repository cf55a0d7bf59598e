package pipeline

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// imageHTML renders an image block. Sources with a scheme other than http,
// https, file or data:image are not linked; only the alt text is shown.
func imageHTML(src, alt string) string {
	p := element(atom.P, "class", "image")
	if isSafeImageSource(src) {
		p.AppendChild(element(atom.Img, "src", src, "alt", alt))
	} else {
		p.AppendChild(textNode(alt))
	}
	return renderNode(p)
}

// mathErrorHTML shows the escaped source of a formula that failed.
func mathErrorHTML(latex string, display bool, err error) string {
	delim := "$"
	tag := atom.Span
	class := "math-error"
	if display {
		delim = "$$"
		tag = atom.Div
		class = "math-display math-error"
	}
	n := element(tag, "class", class, "title", err.Error())
	n.AppendChild(textNode(delim + latex + delim))
	return renderNode(n)
}

// fallbackHTML shows degraded plain text for a formula.
func fallbackHTML(text string) string {
	n := element(atom.Span, "class", "math-fallback")
	n.AppendChild(textNode(text))
	return renderNode(n)
}

// element builds an element node; attrs are key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// renderNode renders a node built in memory; such nodes cannot fail to render.
func renderNode(n *html.Node) string {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return html.EscapeString(n.Data)
	}
	return buf.String()
}

func isSafeImageSource(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "file":
		return true
	case "data":
		return strings.HasPrefix(strings.ToLower(u.Opaque), "image/")
	default:
		return false
	}
}
