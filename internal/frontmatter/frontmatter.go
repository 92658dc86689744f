// Package frontmatter splits YAML frontmatter from page and layout sources.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a source file separated into its data and body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// Had reports whether the source carried a frontmatter block at all.
	Had bool
}

// Parse splits content and decodes the frontmatter block.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return Document{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return Document{Fields: fields, Body: body, Had: had}, nil
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. A closing delimiter at end of file without a trailing
// newline is accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}

	closeEOF := []byte(nl + "---")
	if bytes.HasSuffix(rest, closeEOF) {
		return rest[:len(rest)-len("---")], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Render assembles a document from fields and body. Keys are emitted in
// sorted order so scaffolded files are stable.
func Render(fields map[string]any, body []byte) ([]byte, error) {
	if len(fields) == 0 {
		return body, nil
	}
	data, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	out := make([]byte, 0, len(data)+len(body)+8)
	out = append(out, "---\n"...)
	out = append(out, data...)
	out = append(out, "---\n"...)
	out = append(out, body...)
	return out, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
