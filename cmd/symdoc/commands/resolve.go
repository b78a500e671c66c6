package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/incremental"
	"git.home.luguber.info/inful/symdoc/internal/registry"
	"git.home.luguber.info/inful/symdoc/internal/render"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	From string   `help:"Page id the links are rendered from" default:"index"`
	Refs []string `arg:"" name:"ref" help:"References such as Game or Component-update"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	env, err := openEnvironment(root.Config, g.Logger, false)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := signalContext()
	defer cancel()

	reg, found, err := incremental.NewSnapshotCache(env.store).WithLogger(g.Logger).Latest(ctx, env.cfg.OutputDir)
	if err != nil {
		return err
	}
	if !found {
		return errors.ValidationError("no symbol cache found: run `symdoc build` first").
			WithContext("output_dir", env.cfg.OutputDir).
			Build()
	}
	return resolveRefs(os.Stdout, reg, r.From, r.Refs)
}

func resolveRefs(w io.Writer, reg *registry.Registry, from string, refs []string) error {
	var missing []string
	for _, raw := range refs {
		target, ok := reg.Resolve(raw)
		link, _ := render.Link(reg, from, raw)
		if !ok {
			missing = append(missing, raw)
			_, _ = fmt.Fprintf(w, "%s\tunresolved\n", raw)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", raw, target.Identity, link)
	}
	if len(missing) > 0 {
		return errors.SymbolNotFoundError(fmt.Sprintf("%d reference(s) could not be resolved", len(missing))).
			WithContext("refs", missing).
			Build()
	}
	return nil
}
