package docs

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not close it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Frontmatter holds the page settings symdoc reads.
type Frontmatter struct {
	Package string `yaml:"package"`
	Title   string `yaml:"title"`
}

// splitFrontmatter separates `---` delimited YAML frontmatter from the body.
// bodyOffset is the byte offset of the body within content.
func splitFrontmatter(content []byte) (frontmatter []byte, bodyOffset int, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, 0, nil
	}
	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, start + len(open), nil
	}
	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len(nl)-3], len(content), nil
		}
		return nil, 0, ErrMissingClosingDelimiter
	}
	return content[start : start+idx], start + idx + len(closeSeq), nil
}

func parseFrontmatter(raw []byte) (Frontmatter, error) {
	var fm Frontmatter
	if len(bytes.TrimSpace(raw)) == 0 {
		return fm, nil
	}
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return fm, err
	}
	return fm, nil
}
