package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docpress/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceFlags
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, w.SourceFlags)
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

	watcher := watch.New(watch.Options{
		SourceRoot: cfg.Source,
		DestRoot:   cfg.Destination,
		Debounce:   cfg.Watch.Debounce,
		Interval:   cfg.Watch.Interval,
	}, func(ctx context.Context) error {
		report, err := r.run(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Out, "Build %s: %s\n", report.Outcome, report.Summary())
		return nil
	})
	_, _ = fmt.Fprintf(g.Out, "Watching %s (Ctrl+C to stop)\n", cfg.Source)
	return watcher.Run(ctx)
}
