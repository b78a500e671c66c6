package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/build"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Full bool `short:"f" help:"Ignore the symbol cache and rebuild every page"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	env, err := openEnvironment(root.Config, g.Logger, true)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := env.service.Run(ctx, build.Request{Full: b.Full})
	if err != nil {
		return err
	}
	printResult(os.Stdout, result)
	return failureError(result)
}

// failureError turns page failures into a build error so the exit code
// reflects them.
func failureError(result *build.Result) error {
	if len(result.Failures) == 0 {
		return nil
	}
	return errors.BuildError(fmt.Sprintf("%d page(s) failed", len(result.Failures))).
		WithContext("build_id", result.BuildID).
		WithContext("pages", result.FailedPages()).
		WithCause(result.Failures[0].Err).
		Build()
}

func printResult(w io.Writer, r *build.Result) {
	mode := "full"
	if r.Incremental {
		mode = "incremental"
	}
	_, _ = fmt.Fprintf(w, "Build %s: %s (%s, %s)\n", r.BuildID, r.Status, mode, r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  read %d, written %d, removed %d, stale %d, unresolved references %d\n",
		len(r.Read), len(r.Written), len(r.Removed), len(r.Stale), r.Unresolved)
	if len(r.Stale) > 0 {
		_, _ = fmt.Fprintf(w, "  stale: %s\n", strings.Join(r.Stale, ", "))
	}
	for _, f := range r.Failures {
		_, _ = fmt.Fprintf(w, "  failed %s: %v\n", f.Page, f.Err)
	}
}
