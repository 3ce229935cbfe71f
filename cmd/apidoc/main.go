package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/apidoc/cmd/apidoc/commands"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	global := &commands.Global{Context: ctx, Stdout: os.Stdout, Stderr: os.Stderr}
	parser := kong.Parse(cli,
		kong.Name("apidoc"),
		kong.Description("Build API documentation pages from declaration files."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := parser.Run(global, cli); err != nil {
		code := errors.NewCLIErrorAdapter(cli.Verbose, nil).Report(os.Stderr, err)
		stop()
		os.Exit(code)
	}
}
