package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/chatwidget/internal/widget"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		filePath   string
		intentName string
	)

	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send one message or file and print the reply",
		Example: `  chatwidget send "where is my order?"
  chatwidget send --file receipt.pdf "this is wrong"
  chatwidget send --intent complaint "the parcel arrived damaged"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			sub := widget.Submission{
				Message: strings.Join(args, " "),
				Intent:  intentName,
			}
			if filePath != "" {
				if sub.File, err = a.readAttachment(filePath); err != nil {
					return err
				}
			}
			return outcomeError(a.widget.Submit(cmd.Context(), sub))
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Attach a file")
	cmd.Flags().StringVarP(&intentName, "intent", "i", "", "Tag the message with an intent")

	return cmd
}
