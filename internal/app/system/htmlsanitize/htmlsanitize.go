// Package htmlsanitize cleans admin- and user-authored rich text (news
// bodies, question answers) with bluemonday and derives plain-text excerpts.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once

	strict     *bluemonday.Policy
	strictOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy.AllowElements("u", "s", "sub", "sup", "mark")

		policy.AllowAttrs("class").OnElements("span", "p", "blockquote")
	})
	return policy
}

func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize removes dangerous elements and attributes from HTML, keeping
// formatting, links, tables and the dir/lang attributes of Arabic passages.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for html/template (email bodies).
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether content has no markup.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text and converts newlines to <br> inside a <p>.
func PlainTextToHTML(text string) string {
	if text == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// Prepare accepts plain text or HTML and returns sanitized HTML for storage.
func Prepare(content string) string {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		return PlainTextToHTML(content)
	}
	return Sanitize(content)
}

// PlainText strips all markup and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	// Block-level closers become spaces so words do not run together.
	for _, tag := range []string{"</p>", "<br>", "<br/>", "<br />", "</li>", "</h1>", "</h2>", "</h3>", "</blockquote>"} {
		s = strings.ReplaceAll(s, tag, tag+" ")
	}
	text := html.UnescapeString(getStrict().Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most max runes of the plain text of s, cut at a word
// boundary with "..." appended when shortened.
func Excerpt(s string, max int) string {
	text := PlainText(s)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	limit := max - 3
	if limit < 1 {
		limit = max
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "..."
}
