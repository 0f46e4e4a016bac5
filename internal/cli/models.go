// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/loorisr/tinychat/internal/session"
)

func newModelsCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the backend's models",
		Long: `List the models offered by the backend, in collation order.
The selected model is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStoreApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			sess := modelSession(a)
			sess.ApplyModels(ids)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Models   []string `json:"models"`
					Selected string   `json:"selected"`
				}{sess.Models(), sess.Model()})
			}
			printModels(out, sess.Models(), sess.Model())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "use NAME",
		Short: "Store NAME as the preferred model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStoreApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := modelSession(a).SelectModel(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferred model: "+args[0])
			return nil
		},
	})
	return cmd
}

// modelSession is a session without a transport, used for model selection.
func modelSession(a *app) *session.Session {
	sess := session.New(session.Config{KV: a.kv, Logger: a.log})
	if a.cfg.Server.Model != "" {
		sess.UseModel(a.cfg.Server.Model)
	}
	return sess
}

func printModels(w io.Writer, models []string, selected string) {
	if len(models) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No models available"))
		return
	}
	for _, m := range models {
		if m == selected {
			fmt.Fprintln(w, modelStyle.Render("* "+m))
		} else {
			fmt.Fprintln(w, "  "+m)
		}
	}
}
