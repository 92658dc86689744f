// Package linkcheck finds internal links in built HTML that point at files
// the build did not produce.
package linkcheck

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Link is a reference found in an HTML document.
type Link struct {
	URL       string
	Tag       string
	Attribute string
	Internal  bool
}

// linkAttrs lists the attribute carrying a reference for each checked tag.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// ExtractLinks parses r and returns every reference in document order.
// base identifies the site's own host; it may be nil.
func ExtractLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLinks, "failed to parse HTML").Build()
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := strings.TrimSpace(getAttr(n, attr)); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr, Internal: isInternal(v, base)})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isInternal reports whether link points into the site. Fragment-only and
// non-navigational schemes are not links to files and report false.
func isInternal(link string, base *url.URL) bool {
	for _, prefix := range []string{"#", "mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link, prefix) {
			return false
		}
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	return base != nil && base.Host != "" && strings.EqualFold(u.Host, base.Host)
}
