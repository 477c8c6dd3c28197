package feed

import (
	"regexp"
	"strings"
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	blockStart = regexp.MustCompile(`(?i)^<(?:p|div|ul|ol|li|dl|h[1-6]|blockquote|pre|table|thead|tbody|tr|figure|figcaption|hr|section|article|aside|header|footer|nav|form|address|iframe|script|style|!--)[\s>/]`)
)

// AutoP wraps blank-line separated blocks of text in paragraphs and turns
// the remaining single newlines into line breaks. Blocks that already start
// with a block-level element are left alone.
func AutoP(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	var b strings.Builder
	for _, block := range blankLines.Split(content, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockStart.MatchString(block) || blockStart.MatchString(block+" ") {
			b.WriteString(block)
			b.WriteString("\n")
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(block, "\n", "<br />\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}
