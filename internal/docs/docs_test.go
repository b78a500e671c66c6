package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// md swaps § for backticks so fixtures can live in raw strings.
func md(s string) string { return strings.ReplaceAll(s, "§", "`") }

const componentsPage = `---
package: flame
---
# Components

§§§{symdoc}
:file: src/components/core/component.dart
:symbol: Component
§§§

See {ref}§Game§ and {ref}§Component-update§ for details.

§§§dart
{ref}§NotAReference§
§§§

Plain §code§ is left alone.
`

func TestParseDirectivesAndReferences(t *testing.T) {
	content := []byte(md(componentsPage))
	page, err := Parse("components", "components.md", content)
	require.NoError(t, err)

	require.Equal(t, "flame", page.Frontmatter.Package)
	require.Len(t, page.Directives, 1)
	d := page.Directives[0]
	require.Equal(t, "src/components/core/component.dart", d.File)
	require.Equal(t, "Component", d.Symbol)
	require.Empty(t, d.Package)
	require.Equal(t, 6, d.Line)

	block := string(content[d.Start:d.End])
	require.True(t, strings.HasPrefix(block, "```{symdoc}\n"), block)
	require.True(t, strings.HasSuffix(block, "```\n"), block)
	require.NotContains(t, block, "See")

	require.Len(t, page.References, 2)
	require.Equal(t, "Game", page.References[0].Target)
	require.Equal(t, "Component-update", page.References[1].Target)
	require.Equal(t, md("{ref}§Game§"), string(content[page.References[0].Start:page.References[0].End]))
	require.Equal(t, md("{ref}§Component-update§"), string(content[page.References[1].Start:page.References[1].End]))
}

func TestParseDirectivePackageOverride(t *testing.T) {
	content := md("§§§{symdoc}\n:file: lib/a.dart\n:symbol: A\n:package: flame_audio\n§§§\n")
	page, err := Parse("audio", "audio.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, page.Directives, 1)
	require.Equal(t, "flame_audio", page.Directives[0].Package)
	require.Equal(t, 1, page.Directives[0].Line)
	require.Equal(t, content, content[page.Directives[0].Start:page.Directives[0].End])
}

func TestParseDirectiveErrors(t *testing.T) {
	tests := map[string]string{
		"missing symbol": "§§§{symdoc}\n:file: lib/a.dart\n§§§\n",
		"missing file":   "§§§{symdoc}\n:symbol: A\n§§§\n",
		"unknown option": "§§§{symdoc}\n:file: lib/a.dart\n:symbol: A\n:members: all\n§§§\n",
		"bad option":     "§§§{symdoc}\nfile lib/a.dart\n§§§\n",
		"invalid symbol": "§§§{symdoc}\n:file: lib/a.dart\n:symbol: Game-update\n§§§\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("p", "p.md", []byte(md(content)))
			require.Error(t, err)
			require.True(t, errors.IsConfiguration(err))
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			page, _ := ce.Context().GetString("page")
			require.Equal(t, "p", page)
		})
	}
}

func TestParseInvalidSymbolCarriesLine(t *testing.T) {
	content := "# API\n\n§§§{symdoc}\n:file: lib/a.dart\n:symbol: 2Fast\n§§§\n"
	_, err := Parse("api/index", "api/index.md", []byte(md(content)))
	require.True(t, errors.IsConfiguration(err))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	page, _ := ce.Context().GetString("page")
	require.Equal(t, "api/index", page)
	symbol, _ := ce.Context().GetString("symbol")
	require.Equal(t, "2Fast", symbol)
	require.Equal(t, 3, ce.Context()["line"])
}

func TestParseUnclosedFrontmatter(t *testing.T) {
	_, err := Parse("p", "p.md", []byte("---\npackage: flame\n# no end\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestFingerprint(t *testing.T) {
	a, err := Parse("p", "p.md", []byte("---\npackage: flame\n---\nbody\n"))
	require.NoError(t, err)
	b, err := Parse("p", "p.md", []byte("---\npackage: flame\nfingerprint: abc\n---\nbody\n"))
	require.NoError(t, err)
	c, err := Parse("p", "p.md", []byte("---\npackage: flame\n---\nbody changed\n"))
	require.NoError(t, err)

	require.NotEmpty(t, a.Fingerprint)
	require.Equal(t, a.Fingerprint, b.Fingerprint)
	require.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestSortPages(t *testing.T) {
	ids := []string{"b/z", "a", "index", "b/index", "b/a", "c"}
	pages := make([]*Page, 0, len(ids))
	for _, id := range ids {
		pages = append(pages, &Page{ID: id})
	}
	SortPages(pages)

	got := make([]string, 0, len(pages))
	for _, p := range pages {
		got = append(got, p.ID)
	}
	require.Equal(t, []string{"index", "a", "c", "b/index", "b/a", "b/z"}, got)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(md(content)), 0o644))
	}
	write("index.md", "# Home\n")
	write("components/index.md", "# Components\n")
	write("components/sprite.md", "§§§{symdoc}\n:file: lib/sprite.dart\n§§§\n")
	write("notes.txt", "ignored")
	write(".hidden/page.md", "ignored")
	write(".draft.md", "ignored")

	pages, err := Discover(dir)
	require.NoError(t, err)

	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"index", "components/index", "components/sprite"}, ids)

	sprite := pages[2]
	require.Error(t, sprite.Err)
	require.NotEmpty(t, sprite.Fingerprint)
	require.NoError(t, pages[0].Err)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, errors.IsConfiguration(err))
}

func TestPageID(t *testing.T) {
	require.Equal(t, "components/sprite", PageID(filepath.Join("components", "sprite.md")))
	require.Equal(t, "index", PageID("index.md"))
}
