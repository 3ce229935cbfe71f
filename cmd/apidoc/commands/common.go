// Package commands implements the apidoc subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/apidoc/internal/config"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/source"
)

// Global carries process-wide state into every command.
type Global struct {
	Context context.Context
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI is the root command.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"apidoc.yaml"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Build the page tree from the declaration file"`
	Init       InitCmd       `cmd:"" help:"Write a default configuration file"`
	Watch      WatchCmd      `cmd:"" help:"Rebuild whenever the declaration file changes and serve metrics"`
	Inheritors InheritorsCmd `cmd:"" help:"List the direct inheritors of a classlike"`
	Brief      BriefCmd      `cmd:"" help:"Print the brief of a declaration per source set"`
	History    HistoryCmd    `cmd:"" help:"Show recent builds from the journal"`
}

// loadConfig reads the configuration and resolves its relative paths against
// the directory holding the file. A missing file falls back to defaults when
// allowMissing is set.
func (c *CLI) loadConfig(allowMissing bool) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		if !allowMissing || !errors.HasCategory(err, errors.CategoryConfig) || fileExists(c.Config) {
			return nil, err
		}
		cfg = config.Default()
	}
	if c.Verbose {
		cfg.Logging.Level = string(config.LogLevelDebug)
	}
	base := filepath.Dir(c.Config)
	cfg.Input.Path = resolve(base, cfg.Input.Path)
	cfg.Output.Directory = resolve(base, cfg.Output.Directory)
	cfg.Journal.Path = resolve(base, cfg.Journal.Path)
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (g *Global) logger(cfg *config.Config) *slog.Logger {
	return cfg.Logging.NewLogger(g.Stderr)
}

// loadModule reads and validates the declaration file.
func loadModule(path string) (*model.Module, error) {
	return source.LoadFile(path)
}

// findDeclaration looks a declaration up by its rendered DRI.
func findDeclaration(m *model.Module, dri string) (*model.Declaration, error) {
	var found *model.Declaration
	m.Walk(func(d, _ *model.Declaration) bool {
		if d.DRI.String() == dri {
			found = d
			return false
		}
		return true
	})
	if found == nil {
		return nil, errors.NotFoundError("unknown declaration").
			WithContext("dri", dri).
			Build()
	}
	return found, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
