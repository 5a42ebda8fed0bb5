package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/pkg/collector"
)

func collectCmd(a *app) *cobra.Command {
	var (
		format string
		root   string
	)
	cmd := &cobra.Command{
		Use:   "collect <file.html>",
		Short: "Print the snapshot of a form",
		Long: `collect parses an HTML file, reads the selected form and prints its
snapshot. The json format prints the nested tree; the form format prints
url-encoded bracket-notation pairs, optionally wrapped in --root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			form, err := a.selectForm(doc)
			if err != nil {
				return err
			}
			snap := collector.Collect(form,
				collector.WithPrefix(a.cfg.Collector.Prefix),
				collector.WithLogger(logging.Named(a.logger, "collector")),
			)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("encode snapshot: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case "form":
				_, err := fmt.Fprintln(out, snap.Values(root).Encode())
				return err
			default:
				return fmt.Errorf("unknown format %q (json, form)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format (json, form)")
	cmd.Flags().StringVar(&root, "root", "", "wrap form-encoded names in this root")
	return cmd
}
