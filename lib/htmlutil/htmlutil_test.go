package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, rawHTML string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTextCollapsesWhitespace(t *testing.T) {
	doc := parse(t, `<div>  hello
		world  </div>`)
	require.Equal(t, "hello world", Text(doc.Find("div")))
}

func TestTextRewritesSuperscripts(t *testing.T) {
	doc := parse(t, `<div>値は2<sup>6</sup>です</div>`)
	require.Contains(t, Text(doc.Find("div")), "2^6")
}

func TestImagesResolveAgainstBase(t *testing.T) {
	doc := parse(t, `<div>
		<img src="/img/a.png">
		<img src="https://cdn.example.com/b.png">
		<img src="c.png">
	</div>`)
	base, err := url.Parse("https://example.com/q/123")
	require.NoError(t, err)

	require.Equal(t, []string{
		"https://example.com/img/a.png",
		"https://cdn.example.com/b.png",
		"https://example.com/q/c.png",
	}, Images(doc.Find("div"), base))
}

func TestImagesWithoutBase(t *testing.T) {
	doc := parse(t, `<div><img src="/img/a.png"></div>`)
	require.Equal(t, []string{"/img/a.png"}, Images(doc.Find("div"), nil))
}
