package docs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Discover walks pagesDir and parses every Markdown page below it, ordered
// by SortPages. A page that fails to parse is still returned with Err set
// and a fingerprint of its raw content, so callers can report it without
// losing track of it.
func Discover(pagesDir string) ([]*Page, error) {
	info, err := os.Stat(pagesDir)
	if err != nil || !info.IsDir() {
		return nil, errors.ConfigError("pages directory not found").
			WithCause(err).
			WithContext("path", pagesDir).
			Build()
	}

	var pages []*Page
	err = filepath.WalkDir(pagesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != pagesDir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !isMarkdownFile(name) {
			return nil
		}

		rel, err := filepath.Rel(pagesDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		page, err := Load(PageID(rel), path)
		if err != nil {
			return err
		}
		pages = append(pages, page)
		slog.Debug("Discovered page", logfields.Page(page.ID), slog.Int("directives", len(page.Directives)))
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to walk pages directory").
			WithCause(err).
			WithContext("path", pagesDir).
			Build()
	}

	SortPages(pages)
	return pages, nil
}

// Load reads and parses a single page. Only read failures are returned as
// errors; parse failures are recorded on the page.
func Load(id, path string) (*Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	page, perr := Parse(id, path, content)
	if perr != nil {
		return &Page{
			ID:          id,
			Path:        path,
			Content:     content,
			Fingerprint: Fingerprint(nil, content),
			Err:         perr,
		}, nil
	}
	return page, nil
}

// PageID converts a path relative to the pages directory into a page id.
func PageID(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// SortPages orders pages by directory, with each directory's index page
// first and the rest by id.
func SortPages(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.Dir() != b.Dir() {
			return a.Dir() < b.Dir()
		}
		if a.IsIndex() != b.IsIndex() {
			return a.IsIndex()
		}
		return a.ID < b.ID
	})
}

func isMarkdownFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}
