package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/apidoc/cmd/apidoc/commands"
)

var version = "dev"

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("apidoc"),
		kong.Description("Assemble API documentation from symbol records and Go source."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	global := &commands.Global{Logger: slog.Default()}
	ctx.FatalIfErrorf(ctx.Run(global, &cli))
}
