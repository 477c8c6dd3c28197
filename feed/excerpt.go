package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var shortcode = regexp.MustCompile(`\[/?[A-Za-z][^\]]*\]`)

// Excerpt returns explicit when set, otherwise the first words of the
// rendered body as plain text. more is appended when the text was cut.
func Excerpt(explicit, body string, words int, more string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	text := PlainText(body)
	if text == "" {
		return ""
	}
	fields := strings.Fields(text)
	if words > 0 && len(fields) > words {
		return strings.Join(fields[:words], " ") + more
	}
	return strings.Join(fields, " ")
}

// PlainText strips markup, scripts, styles and shortcodes from an HTML fragment.
func PlainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	text := shortcode.ReplaceAllString(doc.Text(), "")
	return strings.Join(strings.Fields(text), " ")
}
