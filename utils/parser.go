package utils

import (
	"net/url"
	"strings"
)

// ResolveURL turns an href found on a page into an absolute URL. Absolute
// hrefs are returned unchanged; relative ones are resolved against origin.
func ResolveURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(href, "/")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(href, "/")
	}
	return base.ResolveReference(ref).String()
}
