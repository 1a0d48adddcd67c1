// Package album resolves album references and applies the bot's ownership rules on
// top of the image host client.
package album

import "regexp"

// BaseURL prefixes every public album link.
const BaseURL = "https://imgur.com/a/"

var urlPattern = regexp.MustCompile(`^https://imgur\.com/a/(\w+)`)

// ParseURL extracts the album id from a link such as https://imgur.com/a/AbC12.
// The scheme and host must match exactly; anything after the id is ignored.
func ParseURL(raw string) (id string, ok bool) {
	m := urlPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// URL returns the public link for an album id.
func URL(id string) string {
	return BaseURL + id
}
