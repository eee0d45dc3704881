package capture

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const articleHTML = `<!DOCTYPE html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Shared Title">
</head><body>
<nav>Home | About | Contact</nav>
<script>window.tracker = true;</script>
<article>
<h1>Shared Title</h1>
<p>Hi.</p>
<p>This is the opening paragraph of the article, long enough to count as substantive content for the excerpt.</p>
<p>A second paragraph with <strong>bold</strong> text and a <a href="https://example.com">link</a>.</p>
</article>
<footer>Copyright 2026</footer>
</body></html>`

func TestExtract_Article(t *testing.T) {
	page, err := NewExtractor().Extract(articleHTML)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if page.Title != "Shared Title" {
		t.Errorf("Title = %q, og:title should win", page.Title)
	}
	if strings.Contains(page.Text, "Home | About") || strings.Contains(page.Text, "Copyright") {
		t.Errorf("nav/footer leaked into text: %q", page.Text)
	}
	if strings.Contains(page.Text, "window.tracker") {
		t.Errorf("script leaked into text: %q", page.Text)
	}
	if !strings.Contains(page.Text, "opening paragraph") {
		t.Errorf("article body missing from text: %q", page.Text)
	}
	if !strings.HasPrefix(page.Excerpt, "This is the opening paragraph") {
		t.Errorf("Excerpt = %q, short paragraphs should be skipped", page.Excerpt)
	}
	if !strings.Contains(page.Markdown, "**bold**") {
		t.Errorf("Markdown = %q", page.Markdown)
	}
	if !strings.Contains(page.Markdown, "[link](https://example.com)") {
		t.Errorf("Markdown should keep links: %q", page.Markdown)
	}
}

func TestExtract_NoArticleFallsBackToBody(t *testing.T) {
	page, err := NewExtractor().Extract(`<html><head><title>Bare</title></head><body><div>Just a plain div of text.</div></body></html>`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if page.Title != "Bare" {
		t.Errorf("Title = %q", page.Title)
	}
	if !strings.Contains(page.Text, "plain div of text") {
		t.Errorf("Text = %q", page.Text)
	}
}

func TestExtract_TitleFromH1(t *testing.T) {
	page, err := NewExtractor().Extract(`<html><body><h1>Heading Only</h1><p>Body text here for the heading-only page, which runs long enough.</p></body></html>`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if page.Title != "Heading Only" {
		t.Errorf("Title = %q", page.Title)
	}
}

func TestExtract_LongTextCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><article>")
	for i := 0; i < 2000; i++ {
		b.WriteString("<p>padding sentence repeated many times over</p>")
	}
	b.WriteString("</article></body></html>")

	page, err := NewExtractor().Extract(b.String())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(page.Text) > maxExtractedChars {
		t.Errorf("len(Text) = %d, want <= %d", len(page.Text), maxExtractedChars)
	}
}

func TestTruncate_CutsOnRuneBoundary(t *testing.T) {
	got := truncate(strings.Repeat("é", 20), 9)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 4)+"..." {
		t.Errorf("truncate = %q", got)
	}
}

func TestExcerptOf_CutsOnRuneBoundary(t *testing.T) {
	got := excerptOf(strings.Repeat("日", 100))
	if !utf8.ValidString(got) {
		t.Fatalf("excerptOf produced invalid UTF-8: %q", got)
	}
	if len(got) != 198 {
		t.Errorf("len = %d, want a 198-byte rune-aligned cut", len(got))
	}
}
