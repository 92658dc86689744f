package server

import (
	"bytes"

	"golang.org/x/net/html"
)

// scriptTag loads the live reload client.
const scriptTag = `<script src="/livereload.js"></script>`

// injectScript inserts tag before the last closing body tag of doc, or
// appends it when there is none.
func injectScript(doc []byte, tag string) []byte {
	z := html.NewTokenizer(bytes.NewReader(doc))
	offset, insertAt := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := len(z.Raw())
		if tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "body" {
				insertAt = offset
			}
		}
		offset += raw
	}
	if insertAt < 0 {
		insertAt = len(doc)
	}

	out := make([]byte, 0, len(doc)+len(tag))
	out = append(out, doc[:insertAt]...)
	out = append(out, tag...)
	out = append(out, doc[insertAt:]...)
	return out
}
