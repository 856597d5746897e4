// chatwidget is a terminal host for the chat widget pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	endpoint   string
	locale     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "chatwidget",
		Short: "Chat widget client for the terminal",
		Long: `chatwidget submits messages and files to a chat endpoint the way the
embedded web widget does: one client-held session, rate-limit retries and
English/Arabic locale switching.

Commands:
  send        Send one message or file and print the reply
  chat        Interactive conversation
  intent      Send a quick intent (inspiration, faq, complaint, ...)
  session     Show or clear the stored session
  detect      Classify text as English or Arabic`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides WIDGET_CONFIG)")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "Chat endpoint URL (overrides CHAT_ENDPOINT)")
	root.PersistentFlags().StringVar(&opts.locale, "locale", "", "Initial locale: en or ar")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newSendCmd(opts),
		newChatCmd(opts),
		newIntentCmd(opts),
		newSessionCmd(opts),
		newDetectCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
