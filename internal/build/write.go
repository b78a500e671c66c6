package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docs"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/observability"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/render"
)

// OutputPath returns where the rendered page id is written.
func OutputPath(outputDir, id string) string {
	return filepath.Join(outputDir, filepath.FromSlash(id)+".md")
}

// writePage renders page against reg and writes it when its output changed.
// It returns the unresolved reference targets.
func (s *Service) writePage(ctx context.Context, reg *registry.Registry, page *docs.Page) ([]string, error) {
	logger := observability.Logger(ctx, s.logger)

	decls := make([]*declaration.Declaration, len(page.Directives))
	for i, d := range page.Directives {
		id := s.identity(page, d)
		if _, ok := reg.Record(id); !ok {
			continue
		}
		decl, err := reg.ResolveDeclaration(id)
		if err != nil {
			return nil, err
		}
		decls[i] = decl
	}

	res := render.Page(page, decls, reg, s.renderOptions())
	for _, target := range res.Unresolved {
		s.recorder.IncUnresolvedReference()
		logger.Warn("Unresolved reference", logfields.Target(target))
	}

	path := OutputPath(s.cfg.OutputDir, page.ID)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, res.Content) {
		return res.Unresolved, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := os.WriteFile(path, res.Content, 0o644); err != nil {
		return nil, errors.FileSystemError("failed to write page output").
			WithCause(err).
			WithContext("page", page.ID).
			WithContext("path", path).
			Build()
	}
	logger.Debug("Page written", logfields.Count(len(page.Directives)))
	return res.Unresolved, nil
}

// removeOutput deletes the output of a removed page.
func (s *Service) removeOutput(id string) error {
	path := OutputPath(s.cfg.OutputDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.FileSystemError("failed to remove page output").
			WithCause(err).
			WithContext("page", id).
			WithContext("path", path).
			Build()
	}
	return nil
}
