package docs

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/registry"
)

// Directive fence languages. {dartdoc} is accepted for existing pages.
var directiveLanguages = map[string]bool{"{symdoc}": true, "{dartdoc}": true}

const refRole = "{ref}"

// Parse reads a page from its raw content.
func Parse(id, filePath string, content []byte) (*Page, error) {
	rawFM, offset, err := splitFrontmatter(content)
	if err == nil {
		var fm Frontmatter
		if fm, err = parseFrontmatter(rawFM); err == nil {
			page := &Page{
				ID:          id,
				Path:        filePath,
				Frontmatter: fm,
				Content:     content,
				BodyOffset:  offset,
				Fingerprint: Fingerprint(rawFM, content[offset:]),
			}
			if err := page.scan(); err != nil {
				return nil, err
			}
			return page, nil
		}
	}
	return nil, errors.ConfigError("invalid page frontmatter").
		WithCause(err).
		WithContext("page", id).
		Build()
}

func (p *Page) scan() error {
	body := p.Body()
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var scanErr error
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.FencedCodeBlock:
			if !directiveLanguages[string(node.Language(body))] {
				return gmast.WalkSkipChildren, nil
			}
			d, err := p.directive(node, body)
			if err != nil {
				scanErr = err
				return gmast.WalkStop, nil
			}
			p.Directives = append(p.Directives, d)
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeSpan:
			if ref, ok := p.reference(node, body); ok {
				p.References = append(p.References, ref)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return scanErr
}

func (p *Page) directive(node *gmast.FencedCodeBlock, body []byte) (Directive, error) {
	infoStart := node.Info.Segment.Start
	start := bytes.LastIndexByte(body[:infoStart], '\n') + 1
	fence := fenceMarker(body[start:infoStart])

	d := Directive{Line: bytes.Count(p.Content[:p.BodyOffset+start], []byte("\n")) + 1}
	contentEnd := node.Info.Segment.Stop
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		contentEnd = seg.Stop
		line := strings.TrimSpace(string(seg.Value(body)))
		if line == "" {
			continue
		}
		key, value, ok := parseOption(line)
		if !ok {
			return d, p.directiveError("invalid directive option", d.Line).WithContext("option", line).Build()
		}
		switch key {
		case "file":
			d.File = value
		case "symbol":
			d.Symbol = value
		case "package":
			d.Package = value
		default:
			return d, p.directiveError("unknown directive option", d.Line).WithContext("option", key).Build()
		}
	}
	if d.File == "" {
		return d, p.directiveError("directive requires a :file: option", d.Line).Build()
	}
	if d.Symbol == "" {
		return d, p.directiveError("directive requires a :symbol: option", d.Line).Build()
	}
	if err := registry.ValidateName(d.Symbol); err != nil {
		return d, p.directiveError("invalid symbol name", d.Line).
			WithCause(err).
			WithContext("symbol", d.Symbol).
			Build()
	}

	d.Start = p.BodyOffset + start
	d.End = p.BodyOffset + closingFenceEnd(body, contentEnd, fence)
	return d, nil
}

func (p *Page) directiveError(message string, line int) *errors.ErrorBuilder {
	return errors.ConfigError(message).WithContext("page", p.ID).WithContext("line", line)
}

// reference recognizes a code span directly preceded by the {ref} role.
func (p *Page) reference(node *gmast.CodeSpan, body []byte) (Reference, bool) {
	prev, ok := node.PreviousSibling().(*gmast.Text)
	if !ok {
		return Reference{}, false
	}
	seg := prev.Segment
	if !bytes.HasSuffix(body[seg.Start:seg.Stop], []byte(refRole)) {
		return Reference{}, false
	}

	var target strings.Builder
	stop := seg.Stop
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			target.Write(t.Segment.Value(body))
			stop = t.Segment.Stop
		}
	}
	name := strings.TrimSpace(target.String())
	if name == "" {
		return Reference{}, false
	}
	end := stop
	for end < len(body) && body[end] == ' ' {
		end++
	}
	for end < len(body) && body[end] == '`' {
		end++
	}
	return Reference{
		Target: name,
		Start:  p.BodyOffset + seg.Stop - len(refRole),
		End:    p.BodyOffset + end,
	}, true
}

func parseOption(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	rest := line[1:]
	i := strings.IndexByte(rest, ':')
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:]), true
}

func fenceMarker(line []byte) []byte {
	trimmed := bytes.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == trimmed[0] {
		n++
	}
	return trimmed[:n]
}

// closingFenceEnd returns the offset just past the closing fence line after
// from, or len(body) for an unclosed block.
func closingFenceEnd(body []byte, from int, fence []byte) int {
	pos := from
	if pos > 0 && body[pos-1] != '\n' {
		i := bytes.IndexByte(body[pos:], '\n')
		if i < 0 {
			return len(body)
		}
		pos += i + 1
	}
	for pos < len(body) {
		lineEnd, next := len(body), len(body)
		if i := bytes.IndexByte(body[pos:], '\n'); i >= 0 {
			lineEnd = pos + i
			next = lineEnd + 1
		}
		line := bytes.TrimSpace(body[pos:lineEnd])
		if len(fence) > 0 && bytes.HasPrefix(line, fence) && len(bytes.Trim(line, string(fence[:1]))) == 0 {
			return next
		}
		pos = next
	}
	return len(body)
}
