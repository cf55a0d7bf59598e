package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// pageTemplate wraps a rendered fragment in a complete HTML5 document.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// DefaultCSS styles the elements the renderer emits.
const DefaultCSS = `body{max-width:48rem;margin:2rem auto;font-family:serif;line-height:1.5}
.math-display{margin:1rem 0;text-align:center;overflow-x:auto}
.math-error{color:#b00020;font-family:monospace;white-space:pre-wrap}
.math-fallback{font-style:italic}
p.image{text-align:center}
p.image img{max-width:100%}`

// Page wraps a fragment in a standalone document titled title.
func Page(title, fragment string) string {
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), fragment)
}

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
	InjectStylesheet(ctx context.Context, htmlContent, href string) string
}

// CSSInjection injects styles into HTML content.
type CSSInjection struct{}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}
	return injectHead(htmlContent, "<style>"+sanitizeCSS(cssContent)+"</style>")
}

// InjectStylesheet inserts a <link rel="stylesheet"> for href, used for the
// KaTeX stylesheet.
func (s *CSSInjection) InjectStylesheet(ctx context.Context, htmlContent, href string) string {
	if href == "" || ctx.Err() != nil {
		return htmlContent
	}
	link := `<link rel="stylesheet" href="` + html.EscapeString(href) + `">`
	return injectHead(htmlContent, link)
}

// injectHead inserts tag before </head>, after <body>, or at the start.
func injectHead(htmlContent, tag string) string {
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + tag + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + tag + htmlContent[insertPos:]
		}
	}

	return tag + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
