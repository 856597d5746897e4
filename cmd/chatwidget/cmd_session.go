package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or clear the stored session",
	}

	cmd.AddCommand(
		newSessionShowCmd(opts),
		newSessionClearCmd(opts),
	)

	return cmd
}

func newSessionShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the session record, creating it if absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg, cmd.ErrOrStderr())

			kv, sessions, err := openSessions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			sess, err := sessions.GetOrCreate(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sess)
		},
	}
}

func newSessionClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the session record so the next message starts a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg, cmd.ErrOrStderr())

			kv, sessions, err := openSessions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			if err := sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %q cleared\n", sessions.Key())
			return nil
		},
	}
}
