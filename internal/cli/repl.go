// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides input history and line editing for the repl.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "repl_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) readLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (0600) and restores the terminal.
func (r *lineReader) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// REPL COMMAND
// =============================================================================

const replHelp = `Commands:
  /new            start a new conversation
  /models         list models
  /model NAME     select a model
  /history        list saved conversations
  /open STAMP     continue a saved conversation
  /quit           exit`

func newReplCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-based chat with input history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}
}

func runRepl(cmd *cobra.Command, opts *globalOptions) error {
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
	selectModel(ctx, a)
	a.start()
	if err := waitOpen(ctx, a, q, a.cfg.HandshakeTimeout()); err != nil {
		return err
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Connected to %s, model %s. Type /help for commands.",
		a.cfg.HTTPEndpoint(), a.session.Model())))

	reader := newLineReader()
	defer reader.Close()

	for {
		input, err := reader.readLine(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed stdin
			fmt.Fprintln(out)
			return nil
		}
		q.drain(a)
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlash(ctx, a, input, out)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("Error: ")+err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		fmt.Fprint(out, modelStyle.Render(a.session.Model()+"> "))
		reply, err := streamReply(ctx, a, q, input, out, true)
		if reply != "" && !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(out)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(out, errorStyle.Render("Error: ")+err.Error())
		}
	}
}

// handleSlash runs a repl command. It reports true when the repl should exit.
func handleSlash(ctx context.Context, a *app, input string, w io.Writer) (bool, error) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/?":
		fmt.Fprintln(w, replHelp)

	case "/new":
		if err := a.session.NewConversation(); err != nil {
			return false, err
		}
		fmt.Fprintln(w, mutedStyle.Render("New conversation"))

	case "/models":
		ids, err := a.client.ListModels(ctx)
		if err != nil {
			return false, err
		}
		a.session.ApplyModels(ids)
		printModels(w, a.session.Models(), a.session.Model())

	case "/model":
		if len(args) != 1 {
			return false, errors.New("usage: /model NAME")
		}
		if err := a.session.SelectModel(args[0]); err != nil {
			return false, err
		}
		fmt.Fprintln(w, mutedStyle.Render("Model: ")+modelStyle.Render(a.session.Model()))

	case "/history":
		printHistory(w, a.history.Newest())

	case "/open":
		if len(args) != 1 {
			return false, errors.New("usage: /open STAMP")
		}
		stamp, err := model.ParseStamp(args[0])
		if err != nil {
			return false, err
		}
		if err := a.session.Open(stamp); err != nil {
			return false, err
		}
		fmt.Fprintln(w, a.session.Current().Markdown())

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}
