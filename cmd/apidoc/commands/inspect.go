package commands

import (
	"fmt"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/pages"
	"git.home.luguber.info/inful/apidoc/internal/pipeline"
)

// InheritorsCmd implements the 'inheritors' command.
type InheritorsCmd struct {
	Input string `short:"i" help:"Declaration file, overriding input.path"`
	DRI   string `arg:"" help:"Classlike DRI, e.g. collections/List"`
}

func (c *InheritorsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	if c.Input != "" {
		cfg.Input.Path = c.Input
	}
	m, err := loadModule(cfg.Input.Path)
	if err != nil {
		return err
	}
	d, err := findDeclaration(m, c.DRI)
	if err != nil {
		return err
	}
	if !d.Kind.IsClasslike() {
		return errors.InputError("declaration is not a classlike").
			WithContext("dri", c.DRI).
			Build()
	}

	logger := g.logger(cfg)
	resolver := inheritance.NewResolver(inheritance.WithLogger(logger))
	info := resolver.Inheritors(m, diag.NewCollector(logger))[d.DRI.String()]
	for _, id := range d.SourceSets {
		for _, in := range info[id] {
			fmt.Fprintf(g.Stdout, "%s\t%s\n", id, in.DRI)
		}
	}
	return nil
}

// BriefCmd implements the 'brief' command.
type BriefCmd struct {
	Input string `short:"i" help:"Declaration file, overriding input.path"`
	DRI   string `arg:"" help:"Declaration DRI, e.g. collections/List/add(E)"`
}

func (c *BriefCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	if c.Input != "" {
		cfg.Input.Path = c.Input
	}
	m, err := loadModule(cfg.Input.Path)
	if err != nil {
		return err
	}
	d, err := findDeclaration(m, c.DRI)
	if err != nil {
		return err
	}

	// Comments and inherited documentation are needed, pages are not.
	bs := pipeline.NewBuildState(m, g.logger(cfg))
	if _, err := pipeline.Default().Execute(g.Context, bs, pipeline.StageDocumentables); err != nil {
		return err
	}
	b := pages.NewBuilder(m, bs.Store, bs.Logger)
	for _, id := range d.SourceSets {
		fmt.Fprintf(g.Stdout, "%s\t%s\n", id, b.Brief(d, id).Plain())
	}
	return nil
}
