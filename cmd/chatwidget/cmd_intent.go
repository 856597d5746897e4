package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIntentCmd(opts *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "intent <name>",
		Short: "Send the canonical prompt for a quick intent",
		Long: `Send the canonical prompt for a quick intent in the active locale.
Names the widget does not know are sent as-is.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if list {
				catalog := a.widget.Catalog()
				for _, name := range catalog.Names() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, catalog.PromptFor(name, a.widget.Locale()))
				}
				return nil
			}
			return outcomeError(a.widget.QuickIntent(cmd.Context(), args[0]))
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List known intents and their prompts")

	return cmd
}
