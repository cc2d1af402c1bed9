// internal/app/system/htmlsanitize/htmlsanitize.go
// Package htmlsanitize strips unsafe HTML from free-text fields entered
// by leadership (pastoral notes, célula descriptions, report notes)
// before they are persisted.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// policy allows common formatting tags and safe links, nothing else.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	return p
}()

// strict removes all markup, leaving plain text.
var strict = bluemonday.StrictPolicy()

// Sanitize returns s with scripts, event handlers and javascript:
// URLs removed, keeping common formatting markup.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// PlainText strips all markup from s. Used for fields that should
// never contain HTML at all (names, role labels).
func PlainText(s string) string {
	return strict.Sanitize(s)
}
