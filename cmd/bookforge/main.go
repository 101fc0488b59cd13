package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/cmd/bookforge/commands"
)

// version is overridden at link time via -ldflags.
var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookforge"),
		kong.Description("Static site generator for long-form books"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	// AfterApply installed the default logger during parsing.
	global := &commands.Global{Logger: slog.Default()}
	ctx.FatalIfErrorf(ctx.Run(global, &cli))
}
