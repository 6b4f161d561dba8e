package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SourceFlags
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, b.SourceFlags)
	if err != nil {
		return err
	}
	g.Logger = newLogger(cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := newRunner(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.run(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Build %s: %s\n", report.Outcome, report.Summary())
	if report.Outcome == pipeline.OutcomeCanceled {
		return errors.RuntimeError("build canceled").Build()
	}
	return nil
}
