package commands

import (
	"fmt"
	"time"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input   string `short:"i" help:"Declaration file, overriding input.path"`
	Output  string `short:"o" help:"Output directory, overriding output.directory"`
	Workers int    `short:"w" help:"Concurrent top-level declarations, overriding pipeline.workers"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	if b.Input != "" {
		cfg.Input.Path = b.Input
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Workers > 0 {
		cfg.Pipeline.Workers = b.Workers
	}

	rt, err := newRuntime(g.Context, cfg, g.logger(cfg), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.build(g.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Build %s: %s, %d pages, %d diagnostics in %s\n",
		report.BuildID, report.Outcome, report.Pages, len(report.Diagnostics), report.Duration.Round(time.Millisecond))
	return nil
}
