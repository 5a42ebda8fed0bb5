package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/hooks"
	"github.com/goliatone/go-formsync/pkg/prompt"
)

func fillCmd(a *app) *cobra.Command {
	var (
		output     string
		skipFilled bool
	)
	cmd := &cobra.Command{
		Use:   "fill <file.html>",
		Short: "Answer a form interactively and autosave as you go",
		Long: `fill asks for each field of the selected form in the terminal. The form
is mounted with the Autosave hook, so answers are pushed through the
configured transport exactly as a browser session would push them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			return a.fill(cmd.Context(), cmd, doc, prompt.NewSurveyDriver(cmd.ErrOrStderr()), output, skipFilled)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the filled HTML to this file")
	cmd.Flags().BoolVar(&skipFilled, "skip-filled", false, "only ask for blank fields")
	return cmd
}

func (a *app) fill(ctx context.Context, cmd *cobra.Command, doc *dom.Document, driver prompt.Driver, output string, skipFilled bool) error {
	form, err := a.selectForm(doc)
	if err != nil {
		return err
	}

	ch, closeChannel, err := a.openChannel(ctx, doc, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeChannel()

	session, err := hooks.NewSession(ch,
		hooks.WithContext(ctx),
		hooks.WithLogger(logging.Named(a.logger, "hooks")),
		hooks.WithMetrics(a.metrics),
		hooks.WithPrefix(a.cfg.Collector.Prefix),
		hooks.WithEvent(a.cfg.Dispatch.Event),
		hooks.WithQuiet(a.cfg.Dispatch.Quiet),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	if _, err := session.Mount(ctx, hooks.NameAutosave, form); err != nil {
		return err
	}

	filler := prompt.New(
		prompt.WithDriver(driver),
		prompt.WithLogger(logging.Named(a.logger, "prompt")),
		prompt.WithSkipFilled(skipFilled),
	)
	changed, fillErr := filler.Fill(ctx, form)

	// Leaving the form pushes whatever is still pending.
	form.Dispatch(dom.EventBlur)
	a.logger.Info("form filled", zap.Int("changed", changed))

	if fillErr != nil {
		return fillErr
	}
	if output == "" {
		return nil
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()
	if err := doc.Render(f); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}
