package view

import (
	"html"
	"strings"

	"memopad/client"
)

// Flatten reduces a rich-text message to its plain text: tags are replaced
// by spaces (so terms never concatenate across paragraphs) and entities are
// unescaped.
func Flatten(richText string) string {
	var b strings.Builder
	inTag := false
	for _, r := range richText {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}

// MatchesSearch reports whether every whitespace-separated term of search
// occurs in the flattened message, case-insensitively and in any order.
func MatchesSearch(message, search string) bool {
	terms := strings.Fields(strings.ToLower(search))
	if len(terms) == 0 {
		return true
	}
	text := strings.ToLower(Flatten(message))
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

// OnDate reports whether createdAt falls on the given calendar day in the
// fixed zone. date uses DateLayout.
func OnDate(createdAt, date string) bool {
	t, err := client.ParseCreatedAt(createdAt)
	if err != nil {
		return false
	}
	return t.Format(DateLayout) == date
}

// Filter combines the optional date-equality filter with the optional
// multi-term text filter. Empty search and date pass everything through.
func Filter(memos []client.Memo, search, date string) []client.Memo {
	out := make([]client.Memo, 0, len(memos))
	for _, m := range memos {
		if date != "" && !OnDate(m.CreatedAt, date) {
			continue
		}
		if !MatchesSearch(m.Message, search) {
			continue
		}
		out = append(out, m)
	}
	return out
}
