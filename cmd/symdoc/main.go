package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/symdoc/cmd/symdoc/commands"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var cli commands.CLI
	global := &commands.Global{Logger: slog.Default()}
	ctx := kong.Parse(&cli,
		kong.Name("symdoc"),
		kong.Description("Incremental API documentation for Markdown pages."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Bind(global),
	)
	err := ctx.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
