// Package render turns service payloads and pipeline outcomes into what the
// host displays: plain status text or a sanitized HTML fragment.
package render

import (
	"regexp"
	"strings"
)

var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)

	// Formatting the service emits on purpose.
	allowedTags = strings.NewReplacer(
		"&lt;b&gt;", "<b>",
		"&lt;/b&gt;", "</b>",
		"&lt;i&gt;", "<i>",
		"&lt;/i&gt;", "</i>",
	)

	bareURL = regexp.MustCompile(`(https?://[^\s]+)`)
)

// Sanitize escapes summary for markup, re-enables bold and italic tags, then
// turns bare URLs into links opening in a new context. The order matters:
// nothing from the payload reaches the output unescaped except the fixed
// allowlist.
func Sanitize(summary string) string {
	out := escaper.Replace(summary)
	out = allowedTags.Replace(out)
	return bareURL.ReplaceAllString(out, `<a href="$1" target="_blank" rel="noopener noreferrer">$1</a>`)
}
