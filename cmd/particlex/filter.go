package main

import (
	"io"

	"github.com/spf13/cobra"

	"particlex/pkg/hook"
)

func newFilterCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:       "filter <before|after> [file]",
		Short:     "Run a render hook over post content",
		Long:      "Read post content from file (or stdin) and write it filtered to stdout.\n\n  before  escape < and > inside ``` fenced code blocks\n  after   double-escape &lt; and &gt; in rendered HTML",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: hook.StageNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hook.Lookup(args[0])
			if err != nil {
				return err
			}
			content, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), f(content))
			return err
		},
	}
}
