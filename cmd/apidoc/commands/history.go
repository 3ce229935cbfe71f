package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/eventstore"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	Build string `help:"Show the stages of one build"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(false)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.ConfigError("the build journal is disabled").
			WithContext("field", "journal.enabled").
			UserAction().
			Build()
	}
	store, err := openJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewBuildHistoryProjection(store, cfg.Journal.History)
	if err := projection.Rebuild(g.Context); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if h.Build != "" {
		summary, ok := projection.GetBuild(h.Build)
		if !ok {
			return errors.NotFoundError("unknown build").WithContext("build_id", h.Build).Build()
		}
		fmt.Fprintf(tw, "STAGE\tRESULT\tDURATION\tERROR\n")
		for _, s := range summary.Stages {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Result, s.Duration.Round(time.Millisecond), s.Error)
		}
		return nil
	}

	fmt.Fprintf(tw, "BUILD\tMODULE\tSTATUS\tSTARTED\tDURATION\tPAGES\n")
	for i, s := range projection.GetHistory() {
		if h.Limit > 0 && i >= h.Limit {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", s.BuildID, s.Module, s.Status,
			s.StartedAt.Format(time.RFC3339), s.Duration.Round(time.Millisecond), s.Pages)
	}
	return nil
}
