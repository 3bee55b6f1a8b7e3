package format

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// PreviewLength is the rune limit for notification previews.
const PreviewLength = 80

const ellipsis = "..."

// breakTags separate words when their markup is removed.
var breakTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// StripHTML returns the text content of s with tags removed, entities
// decoded and whitespace collapsed. Script and style bodies are dropped.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if breakTags[tag] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if breakTags[tag] {
				b.WriteByte(' ')
			}
		}
	}
}

// Truncate shortens s to at most max runes followed by an ellipsis. Strings
// within the limit, and any max <= 0, are returned unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace) + ellipsis
}

// CleanNotificationText turns an HTML notification body into a plain-text
// preview of at most max runes.
func CleanNotificationText(s string, max int) string {
	return Truncate(StripHTML(s), max)
}
