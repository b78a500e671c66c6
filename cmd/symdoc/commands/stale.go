package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/symdoc/internal/build"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// StaleCmd implements the 'stale' command.
type StaleCmd struct{}

func (s *StaleCmd) Run(g *Global, root *CLI) error {
	env, err := openEnvironment(root.Config, g.Logger, false)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := signalContext()
	defer cancel()

	plan, err := env.service.Plan(ctx, build.Request{})
	if err != nil {
		return err
	}
	printPlan(os.Stdout, plan)
	return nil
}

func printPlan(w io.Writer, plan *build.Plan) {
	if !plan.Incremental {
		_, _ = fmt.Fprintln(w, "No symbol cache: the next build reads every page.")
	}
	if plan.Empty() {
		_, _ = fmt.Fprintln(w, "Up to date.")
		return
	}
	section := func(title string, ids []string) {
		for _, id := range ids {
			_, _ = fmt.Fprintf(w, "%-8s %s\n", title, id)
		}
	}
	section("added", sets.Sorted(plan.Changes.Added))
	section("changed", sets.Sorted(plan.Changes.Changed))
	section("removed", sets.Sorted(plan.Changes.Removed))
	section("stale", sets.Sorted(plan.Stale))
	_, _ = fmt.Fprintf(w, "%d page(s) queued\n", len(plan.Queue))
}
