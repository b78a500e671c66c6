package docs

import (
	"path"
	"strings"

	"github.com/inful/mdfp"
)

// Page is one parsed documentation page.
type Page struct {
	ID          string
	Path        string
	Frontmatter Frontmatter
	// Content is the full file; the body starts at BodyOffset.
	Content    []byte
	BodyOffset int
	Directives []Directive
	References []Reference
	// Fingerprint changes whenever frontmatter or body change.
	Fingerprint string
	// Err is set when the page could not be parsed.
	Err error
}

// Dir returns the page's directory id ("" at the root).
func (p *Page) Dir() string { return pageDir(p.ID) }

// IsIndex reports whether the page is its directory's index page.
func (p *Page) IsIndex() bool { return isIndexName(path.Base(p.ID)) }

// Body returns the Markdown body without frontmatter.
func (p *Page) Body() []byte { return p.Content[p.BodyOffset:] }

// Directive declares one documented symbol.
type Directive struct {
	File    string
	Symbol  string
	Package string
	// Line is the 1-based line of the opening fence.
	Line int
	// Start and End delimit the whole fenced block within Content.
	Start, End int
}

// Reference is an inline {ref}`Target` cross reference.
type Reference struct {
	Target     string
	Start, End int
}

// Fingerprint hashes frontmatter and body with mdfp, ignoring any
// fingerprint field already present in the frontmatter.
func Fingerprint(frontmatter, body []byte) string {
	var kept []string
	for _, line := range strings.Split(strings.TrimRight(string(frontmatter), "\r\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), mdfp.FingerprintField+":") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, "\r"))
	}
	return mdfp.CalculateFingerprintFromParts(strings.Join(kept, "\n"), string(body))
}

func pageDir(id string) string {
	dir := path.Dir(id)
	if dir == "." {
		return ""
	}
	return dir
}

func isIndexName(name string) bool {
	switch strings.ToLower(name) {
	case "index", "_index", "overview", "readme":
		return true
	}
	return false
}
