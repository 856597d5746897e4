package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/chatwidget/internal/langdetect"
)

func newDetectCmd() *cobra.Command {
	var (
		hint    string
		asJSON  bool
		eagerly bool
	)

	cmd := &cobra.Command{
		Use:   "detect <text...>",
		Short: "Classify text as English or Arabic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(langdetect.Classify(text, hint))
			}

			arabic, latin := langdetect.Counts(text)
			if eagerly {
				fmt.Fprintf(out, "live: arabic=%t\n", langdetect.DetectLive(text))
			}
			l, ok := langdetect.Detect(text)
			if !ok {
				fmt.Fprintf(out, "indeterminate (arabic=%d latin=%d)\n", arabic, latin)
				return nil
			}
			fmt.Fprintf(out, "%s %s (arabic=%d latin=%d)\n", l, langdetect.Direction(l), arabic, latin)
			return nil
		},
	}

	cmd.Flags().StringVar(&hint, "hint", "", "Client locale hint, used with --json")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scored result as JSON")
	cmd.Flags().BoolVar(&eagerly, "live", false, "Also report the per-keystroke check")

	return cmd
}
