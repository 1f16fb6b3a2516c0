// Package htmlsanitize produces safe HTML fragments for clients that render
// note content as markup. Stored content is never rewritten.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("code", "pre", "table", "th", "td")
		policy = p
	})
	return policy
}

// Sanitize returns s with scripts, event handlers, unsafe URLs and
// unknown elements removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc().Sanitize(s)
}

// TextToHTML renders plain text as an HTML fragment: every character is
// shown as typed and line breaks become <br>.
func TextToHTML(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return Sanitize(strings.Join(lines, "<br>"))
}
