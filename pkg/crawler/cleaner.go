package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	blockSelectors      = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td, figcaption"
	nonContentSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe"
)

// Content is the readable part of a page split into text blocks.
type Content struct {
	Title  string
	Blocks []string
}

// Document renders the content as a plain markdown-like document for the
// extraction prompt.
func (c *Content) Document() string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString("# ")
		b.WriteString(c.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(c.Blocks, "\n\n"))
	return b.String()
}

// Clean narrows html down to its main article with readability, then splits
// it into text blocks and drops blocks with fewer than threshold words.
// When readability finds nothing the whole document body is used.
func Clean(html, pageURL string, threshold int) (*Content, error) {
	source := html
	var title string

	if parsedURL, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), parsedURL); err == nil {
			if strings.TrimSpace(article.Content) != "" {
				source = article.Content
			}
			title = strings.TrimSpace(article.Title)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	doc.Find(nonContentSelectors).Remove()

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	content := &Content{Title: title}
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are visited on their own
		if s.Find(blockSelectors).Length() > 0 {
			return
		}
		if text, ok := keepBlock(s.Text(), threshold); ok {
			content.Blocks = append(content.Blocks, text)
		}
	})

	if len(content.Blocks) == 0 {
		if text, ok := keepBlock(doc.Find("body").Text(), threshold); ok {
			content.Blocks = append(content.Blocks, text)
		}
	}
	return content, nil
}

// keepBlock collapses whitespace in raw and reports whether it meets the
// word threshold.
func keepBlock(raw string, threshold int) (string, bool) {
	words := strings.Fields(raw)
	if len(words) == 0 || len(words) < threshold {
		return "", false
	}
	return strings.Join(words, " "), true
}
