package htmlutil

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"kakomonbot-backend/lib/textutil"
)

// Text renders the combined text content of a selection with whitespace
// runs collapsed to single spaces. Superscript elements are rewritten as
// a caret-prefixed inline token so exponents survive text extraction
// ("2<sup>6</sup>" becomes "2^6").
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		writeText(node, &buffer)
	}
	return textutil.Collapse(buffer.String())
}

func writeText(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && node.Data == "sup" {
		buffer.WriteString("^")
	}
	child := node.FirstChild
	for child != nil {
		writeText(child, buffer)
		child = child.NextSibling
	}
}

// Images returns the src of every <img> inside the selection in document
// order, resolved against base when relative. Sources that do not parse as
// URLs pass through unresolved rather than being dropped.
func Images(sel *goquery.Selection, base *url.URL) []string {
	var images []string
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			return
		}
		images = append(images, ResolveURL(src, base))
	})
	return images
}

// ResolveURL resolves raw against base. A nil base or an unparsable raw
// returns raw unchanged.
func ResolveURL(raw string, base *url.URL) string {
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
