package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docsite"),
		kong.Description("Build and serve a markdown documentation site."),
		kong.UsageOnError(),
	)
	if err := parser.Run(commands.NewGlobal(os.Stdout), cli); err != nil {
		derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
