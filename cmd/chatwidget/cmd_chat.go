package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/widget"
)

const chatHelp = `Type a message and press Enter. Commands:
  /file <path> [message]  send a file, optionally with text
  /intent <name>          send a quick intent (/intent with no name lists them)
  /locale en|ar           switch the widget locale
  /session                show the current session id
  /help                   show this help
  exit, quit              leave`

func newChatCmd(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Interactive mode (Ctrl+C to exit, /help for commands)")
			if plain {
				return a.simpleLoop(cmd, cmd.InOrStdin())
			}
			return a.readlineLoop(cmd)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Read plain lines from stdin without line editing")

	return cmd
}

func (a *app) readlineLoop(cmd *cobra.Command) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.prompt(),
		HistoryFile:     filepath.Join(os.TempDir(), ".chatwidget_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		// Every keystroke feeds the eager Arabic check.
		Listener: readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
			a.widget.ObserveTyping(string(line))
			return nil, 0, false
		}),
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error initializing readline: %v\n", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Falling back to simple input mode...")
		return a.simpleLoop(cmd, cmd.InOrStdin())
	}
	defer rl.Close()

	a.renderer.SetOutput(rl.Stdout())
	defer a.renderer.SetOutput(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout(), "Goodbye!")
				return nil
			}
			fmt.Fprintf(rl.Stdout(), "Error reading input: %v\n", err)
			continue
		}
		if done := a.handleLine(cmd, rl.Stdout(), line); done {
			return nil
		}
		rl.SetPrompt(a.prompt())
	}
}

func (a *app) simpleLoop(cmd *cobra.Command, in io.Reader) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, a.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		}
		a.widget.ObserveTyping(scanner.Text())
		if done := a.handleLine(cmd, out, scanner.Text()); done {
			return nil
		}
	}
}

func (a *app) prompt() string {
	return fmt.Sprintf("[%s] you: ", a.widget.Locale())
}

// handleLine runs one line of input. It reports true when the user quits.
func (a *app) handleLine(cmd *cobra.Command, out io.Writer, line string) bool {
	input := strings.TrimSpace(line)
	ctx := cmd.Context()

	switch {
	case input == "exit" || input == "quit":
		fmt.Fprintln(out, "Goodbye!")
		return true

	case input == "/help":
		fmt.Fprintln(out, chatHelp)

	case input == "/session":
		sess, err := a.sessions.GetOrCreate(ctx)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		fmt.Fprintf(out, "session: %s (since %s)\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04:05"))

	case strings.HasPrefix(input, "/locale"):
		arg := strings.TrimSpace(strings.TrimPrefix(input, "/locale"))
		l, ok := domain.ParseLocale(arg)
		if !ok {
			fmt.Fprintln(out, "usage: /locale en|ar")
			return false
		}
		a.widget.SetLocale(l)

	case strings.HasPrefix(input, "/intent"):
		name := strings.TrimSpace(strings.TrimPrefix(input, "/intent"))
		if name == "" {
			catalog := a.widget.Catalog()
			for _, n := range catalog.Names() {
				fmt.Fprintf(out, "  %-14s %s\n", n, catalog.PromptFor(n, a.widget.Locale()))
			}
			return false
		}
		a.widget.QuickIntent(ctx, name)

	case strings.HasPrefix(input, "/file"):
		path, text, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(input, "/file")), " ")
		if path == "" {
			fmt.Fprintln(out, "usage: /file <path> [message]")
			return false
		}
		file, err := a.readAttachment(path)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		a.widget.Submit(ctx, widget.Submission{Message: text, File: file})

	default:
		a.widget.Submit(ctx, widget.Submission{Message: input})
	}
	return false
}
