package htmltext

import (
	stdhtml "html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ToText drops every tag and returns the concatenated text content, trimmed.
func ToText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(stdhtml.UnescapeString(body)))
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(doc.Text())
}
