package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mathdoc/internal/fileutil"
)

// ResolveLocalImages rewrites relative image sources in a rendered fragment
// to absolute file:// URLs, so a page written elsewhere still shows images
// stored next to its source document. Sources that are URLs, absolute
// paths, or that escape sourceDir are left alone. An empty sourceDir
// returns the fragment unchanged.
func ResolveLocalImages(fragment, sourceDir string) (string, error) {
	if sourceDir == "" || !strings.Contains(fragment, "<img") {
		return fragment, nil
	}

	absDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		resolveImages(n, absDir)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func resolveImages(n *html.Node, dir string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, attr := range n.Attr {
			if attr.Key != "src" || !isLocalRelative(attr.Val) {
				continue
			}
			abs := filepath.Join(dir, filepath.FromSlash(attr.Val))
			if !isPathUnderDir(abs, dir) {
				continue
			}
			n.Attr[i].Val = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveImages(c, dir)
	}
}

// isLocalRelative reports whether src is a relative file path.
func isLocalRelative(src string) bool {
	if src == "" || fileutil.IsURL(src) || strings.HasPrefix(src, "//") || filepath.IsAbs(src) {
		return false
	}
	u, err := url.Parse(src)
	return err == nil && u.Scheme == ""
}

// isPathUnderDir checks if path is inside dir (prevents path traversal).
func isPathUnderDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
