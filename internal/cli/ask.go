// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command for tinychat.
//
// Command: ask [question]
//
// Examples:
//
//	tinychat ask "What is the capital of France?"
//	echo "Summarize this" | tinychat ask -
//	tinychat ask --model llama3 --stats "Explain goroutines"
//
// Flags:
//
//	--raw     print the reply as plain text even on a terminal
//	--stats   print streaming stats to stderr when done
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/ui/components"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

func newAskCommand(opts *globalOptions) *cobra.Command {
	var raw, stats bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Send one message and stream the reply",
		Long: `Send one message and print the reply.

The question is taken from the arguments, or from stdin when it is "-" or
missing. On a terminal the reply is rendered as markdown once complete;
otherwise it is streamed as plain text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd, opts, question, raw, stats)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain text even on a terminal")
	cmd.Flags().BoolVar(&stats, "stats", false, "print streaming stats to stderr")
	return cmd
}

func readQuestion(stdin io.Reader, args []string) (string, error) {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" || q == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read question from stdin: %w", err)
		}
		q = strings.TrimSpace(string(data))
	}
	if q == "" {
		return "", session.ErrEmptyInput
	}
	return q, nil
}

func runAsk(cmd *cobra.Command, opts *globalOptions, question string, raw, stats bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	q := newEventQueue()
	a, err := newChatApp(opts, q.sink)
	if err != nil {
		return err
	}
	defer a.Close()
	defer q.stop()

	out := cmd.OutOrStdout()
	live := raw || !isTerminal(out)

	selectModel(ctx, a)
	a.start()
	if err := waitOpen(ctx, a, q, a.cfg.HandshakeTimeout()); err != nil {
		return err
	}

	reply, err := streamReply(ctx, a, q, question, out, live)
	if live {
		if reply != "" && !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(out)
		}
	} else if reply != "" {
		md := components.NewMarkdown(styles.NewTheme(a.cfg.UI.Theme).IsDark, a.cfg.UI.CodeTheme)
		md.SetWidth(terminalWidth(out, 80) - 2)
		fmt.Fprintln(out, md.Render(reply))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}

	if stats {
		fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render(a.session.Model()+" | "+a.session.Performance().Format()))
	}
	return nil
}

// selectModel loads the model list so a request always names a model.
// Failure is not fatal; the backend then picks its default.
func selectModel(ctx context.Context, a *app) {
	ids, err := a.client.ListModels(ctx)
	if err != nil {
		a.log.Warn("Failed to list models", zap.Error(err))
		return
	}
	a.session.ApplyModels(ids)
}
