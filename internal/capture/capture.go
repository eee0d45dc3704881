// Package capture extracts clip-worthy content from raw page HTML.
// Callers that already hold a text selection skip this package; it
// serves full-page saves where the selection must be derived.
package capture

import (
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/jessemcnew/glippy/internal/errors"
)

// maxExtractedChars caps derived page text before clip-level
// sanitization applies its own limits.
const maxExtractedChars = 10000

// contentSelectors are tried in order; the first non-empty match wins.
// Generic containers come last so article markup is preferred.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".content",
	".post-content",
	".article-body",
}

// Page is the extracted view of one HTML document.
type Page struct {
	Title    string
	Text     string
	Markdown string
	Excerpt  string
}

// Extractor parses HTML into Page values. Safe for concurrent use.
type Extractor struct {
	converter *md.Converter
}

func NewExtractor() *Extractor {
	return &Extractor{converter: md.NewConverter("", true, nil)}
}

// Extract derives title, plain text, and a markdown rendering from raw
// HTML. Pages without a recognizable content region fall back to the
// body text.
func (e *Extractor) Extract(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.NewParse("invalid html", excerptOf(html))
	}

	doc.Find("script, style, noscript, iframe, nav, footer, header, aside").Remove()

	page := &Page{Title: pageTitle(doc)}

	content := mainContent(doc)
	page.Text = collapse(content.Text())
	if len(page.Text) > maxExtractedChars {
		page.Text = cutRune(page.Text, maxExtractedChars)
	}

	if body, err := goquery.OuterHtml(content); err == nil {
		if rendered, err := e.converter.ConvertString(body); err == nil {
			page.Markdown = strings.TrimSpace(rendered)
		}
	}

	page.Excerpt = firstParagraph(content)
	if page.Excerpt == "" && page.Text != "" {
		page.Excerpt = truncate(page.Text, 300)
	}
	return page, nil
}

// pageTitle prefers og:title over the title element, then the first h1.
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s
		}
	}
	return doc.Find("body").First()
}

// firstParagraph returns the first substantive paragraph of the
// content region. Boilerplate one-liners are skipped.
func firstParagraph(content *goquery.Selection) string {
	var out string
	content.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := collapse(p.Text())
		if len(text) > 40 {
			out = truncate(text, 300)
			return false
		}
		return true
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cutRune cuts s at byte index n, backing off to a rune boundary so a
// multi-byte character is never split.
func cutRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(cutRune(s, n)) + "..."
}

func excerptOf(s string) string {
	return cutRune(s, 200)
}
