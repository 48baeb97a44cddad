package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"particlex/pkg/cdn"
)

func newCDNCmd(a *app) *cobra.Command {
	var (
		root  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "cdn",
		Short: "Rewrite the CDN origin in sources and theme files",
		Long: `Replace every occurrence of cdn.old with cdn.new in the files under each
of cdn.dirs (skipping directories named in cdn.skip_dirs) and in each of
cdn.files. Only files whose content changes are written.

With --watch the rewrite runs again whenever one of those files changes,
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.cfg.CDN
			rw := &cdn.Rewriter{
				Root:     root,
				Old:      c.Old,
				New:      c.New,
				Dirs:     c.Dirs,
				Files:    c.Files,
				SkipDirs: c.SkipDirs,
				Logger:   a.logger.With("component", "cdn"),
			}
			out := cmd.OutOrStdout()
			show := func(r cdn.Report, err error) {
				if err != nil {
					a.logger.Error("rewrite failed", "error", err)
					return
				}
				fmt.Fprintf(out, "scanned %d files, rewrote %d (%d replacements), %d missing\n",
					r.Scanned, len(r.Changed), r.Replacements(), len(r.Missing))
			}

			if !watch {
				r, err := rw.Run(cmd.Context())
				if err != nil {
					return err
				}
				show(r, nil)
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a.logger.Info("watching for changes", "debounce", c.Debounce)
			return rw.Watch(ctx, c.Debounce, show)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "blog root that relative paths resolve against")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and rewrite on change")
	cmd.Flags().String("old", "", "origin to replace")
	cmd.Flags().String("new", "", "replacement origin")
	a.bindFlags(cmd, bind{"cdn.old": "old", "cdn.new": "new"})
	return cmd
}
