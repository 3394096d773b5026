package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/helio-assistant/helio/session"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		plain bool
		style string
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, _, err := a.buildSession(ctx, false)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			out := ctrl.Handle(ctx, strings.Join(args, " "))
			(&renderer{out: cmd.OutOrStdout(), style: style, plain: plain}).outcome(out)
			if out.Status != session.Answered {
				return out.Err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the answer without markdown styling")
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style for the answer")
	return cmd
}
