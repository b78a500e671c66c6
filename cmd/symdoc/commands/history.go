package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of builds to show" default:"10"`
	JSON  bool `help:"Print the history as JSON"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.Events.Database == "" {
		return errors.ConfigError("build history needs events.database to be set").
			WithContext("path", root.Config).
			Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Events.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	history, err := loadHistory(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	printHistory(os.Stdout, history)
	return nil
}

func loadHistory(ctx context.Context, store eventstore.Store, limit int) ([]*eventstore.BuildSummary, error) {
	projection := eventstore.NewBuildHistoryProjection(store, limit)
	if err := projection.Rebuild(ctx); err != nil {
		return nil, err
	}
	history := projection.History()
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func printHistory(w io.Writer, history []*eventstore.BuildSummary) {
	if len(history) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tMODE\tBUILT\tFAILED\tSTALE\tUNRESOLVED\tDURATION")
	for _, b := range history {
		mode := "full"
		if b.Incremental {
			mode = "incremental"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			b.BuildID, b.StartedAt.Local().Format(time.DateTime), b.Status, mode,
			b.Built, len(b.Failures), len(b.Stale), b.Unresolved, b.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()
}
