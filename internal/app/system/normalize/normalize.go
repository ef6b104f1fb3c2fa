// Package normalize holds the canonical forms of user-supplied strings:
// emails, names, categories, tags and phone numbers.
package normalize

import "strings"

// Email trims and lowercases an address. Emails are stored and compared
// in this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal runs of whitespace.
// Use text.Fold() for case-insensitive comparison keys.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Category lowercases a category slug and joins its words with "-".
func Category(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Tags trims, lowercases and de-duplicates tags, dropping empties and
// keeping first-seen order. The result is never nil.
func Tags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Phone removes spaces, dashes and parentheses, keeping a leading "+".
func Phone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
