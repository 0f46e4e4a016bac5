// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loorisr/tinychat/internal/export"
	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/storage"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Manage saved conversations",
	}
	cmd.AddCommand(
		newHistoryListCommand(opts),
		newHistoryShowCommand(opts),
		newHistoryRmCommand(opts),
		newHistoryExportCommand(opts),
		newHistorySaveCommand(opts),
		newHistoryImportCommand(opts),
		newHistoryClearCommand(opts),
	)
	return cmd
}

// withHistory opens storage, runs fn and closes storage.
func withHistory(opts *globalOptions, fn func(h *storage.History) error) error {
	a, err := newStoreApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.history)
}

func findConversation(h *storage.History, arg string) (*model.Conversation, error) {
	stamp, err := model.ParseStamp(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid stamp %q: %w", arg, err)
	}
	conv := h.Find(stamp)
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, arg)
	}
	return conv, nil
}

func printHistory(w io.Writer, convs []*model.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No saved conversations"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-14s  %-16s  %4s  %s", "STAMP", "UPDATED", "MSGS", "TITLE")))
	for _, c := range convs {
		fmt.Fprintf(w, "%-14s  %-16s  %4d  %s\n",
			c.Time.String(), c.Time.Time().Format("2006-01-02 15:04"), c.Len(), c.Title(50))
	}
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func newHistoryListCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(opts, func(h *storage.History) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), h.Newest())
				}
				printHistory(cmd.OutOrStdout(), h.Newest())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newHistoryShowCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show STAMP",
		Short: "Print a conversation as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(opts, func(h *storage.History) error {
				conv, err := findConversation(h, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), conv)
				}
				fmt.Fprint(cmd.OutOrStdout(), conv.Markdown())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newHistoryRmCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm STAMP...",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove conversations",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(opts, func(h *storage.History) error {
				var errs []error
				for _, arg := range args {
					stamp, err := model.ParseStamp(arg)
					if err != nil {
						errs = append(errs, fmt.Errorf("invalid stamp %q: %w", arg, err))
						continue
					}
					removed, err := h.Remove(stamp)
					switch {
					case err != nil:
						errs = append(errs, err)
					case removed:
						fmt.Fprintln(cmd.OutOrStdout(), "Removed "+arg)
					default:
						fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Not found: "+arg))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newHistoryExportCommand(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all conversations as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(opts, func(h *storage.History) error {
				if output == "" || output == "-" {
					return writeJSON(cmd.OutOrStdout(), h.Entries())
				}
				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
				if err != nil {
					return err
				}
				if err := writeJSON(f, h.Entries()); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d conversations to %s\n", h.Len(), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newHistorySaveCommand(opts *globalOptions) *cobra.Command {
	var (
		format string
		dir    string
		theme  string
	)
	cmd := &cobra.Command{
		Use:   "save STAMP",
		Short: "Write one conversation to a markdown, html or json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportOpts := export.DefaultOptions()
			exportOpts.OutputDir = dir
			exportOpts.Theme = theme
			exporter, err := export.New(format, exportOpts)
			if err != nil {
				return err
			}
			return withHistory(opts, func(h *storage.History) error {
				conv, err := findConversation(h, args[0])
				if err != nil {
					return err
				}
				path, err := export.ToFile(conv, exporter, exportOpts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html or json")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	cmd.Flags().StringVar(&theme, "theme", "dark", "html theme (dark or light)")
	return cmd
}

func newHistoryImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add conversations from a JSON export",
		Long: `Add conversations from a JSON array as written by "history export".
Entries whose stamp is already taken are moved to the next free stamp.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFileOrStdin(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var convs []*model.Conversation
			if err := json.Unmarshal(data, &convs); err != nil {
				return fmt.Errorf("invalid history file: %w", err)
			}
			return withHistory(opts, func(h *storage.History) error {
				n, err := h.Import(convs, model.StampOf(time.Now()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d conversations\n", n)
				return nil
			})
		},
	}
}

func newHistoryClearCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			return withHistory(opts, func(h *storage.History) error {
				n := h.Len()
				if err := h.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d conversations\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFileOrStdin(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
