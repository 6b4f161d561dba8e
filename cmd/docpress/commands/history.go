package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to list" default:"10"`
	RunID string `name:"run" help:"Show the files of one run instead"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfigFile(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("run history is not configured (history.path)").Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open run history").
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if h.RunID != "" {
		files, err := store.Files(ctx, h.RunID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(tw, "PATH\tRESULT\tFINGERPRINT")
		for _, f := range files {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Path, f.Result, f.Fingerprint)
		}
		return nil
	}

	runs, err := store.Runs(ctx, h.Limit)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tOUTCOME\tCONVERTED\tCOPIED\tSKIPPED\tWARNINGS")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond),
			r.Outcome, r.Converted, r.Copied, r.Skipped, r.Warnings)
	}
	return nil
}
