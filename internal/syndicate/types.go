package syndicate

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Announcement describes a freshly published post.
type Announcement struct {
	Title string
	URL   string
	Tags  []string
}

// Announcer abstracts a social network that can announce a post.
type Announcer interface {
	Name() string
	Announce(ctx context.Context, a Announcement) error
}

// Text renders the announcement within limit runes. The URL is never cut;
// the title is shortened with an ellipsis when needed. Hashtags are appended
// only while they fit.
func (a Announcement) Text(limit int, hashtags bool) string {
	title := strings.TrimSpace(a.Title)
	sep := "\n\n"
	if a.URL == "" {
		sep = ""
	}

	budget := limit - utf8.RuneCountInString(a.URL) - utf8.RuneCountInString(sep)
	if budget < 1 {
		return a.URL
	}
	if utf8.RuneCountInString(title) > budget {
		r := []rune(title)
		title = strings.TrimSpace(string(r[:budget-1])) + "…"
	}
	text := title + sep + a.URL

	if hashtags {
		first := true
		for _, tag := range a.Tags {
			h := Hashtag(tag)
			if h == "" {
				continue
			}
			add := " " + h
			if first {
				add = "\n\n" + h
			}
			if utf8.RuneCountInString(text)+utf8.RuneCountInString(add) > limit {
				break
			}
			text += add
			first = false
		}
	}
	return text
}

// Hashtag turns a free-form tag into a #CamelCase hashtag.
func Hashtag(tag string) string {
	var b strings.Builder
	upper := true
	for _, r := range tag {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
