package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the eco-responsible assistant (one question, or an interactive session)",
	Long: `Ask the eco-responsible assistant.

With a question, prints one answer and exits. Without, starts an interactive
session; type /reset to start over and /quit to leave. When a message names a
known product, matching AGRIBALYSE entries are sent to the model as context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(nil)
		if err != nil {
			return err
		}
		a, err := newAssistant()
		if err != nil {
			return chatError(err)
		}
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
			reply, err := a.Ask(ctx, q, t)
			if err != nil {
				return chatError(err)
			}
			fmt.Fprintln(out, reply)
			return nil
		}

		fmt.Fprintf(out, "💬 EcoMenu assistant (%s). /reset to start over, /quit to leave.\n", a.Model())
		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				fmt.Fprintln(out)
				return sc.Err()
			}
			line := strings.TrimSpace(sc.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/reset":
				a.Reset()
				fmt.Fprintln(out, "✓ Conversation cleared")
				continue
			}
			reply, err := a.Ask(ctx, line, t)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", chatError(err))
				continue
			}
			fmt.Fprintf(out, "\n%s\n\n", reply)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
