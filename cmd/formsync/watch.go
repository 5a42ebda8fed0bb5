package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/pkg/collector"
	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file.html>",
		Short: "Push the form snapshot whenever the file changes",
		Long: `watch re-reads the HTML file on every write and pushes the form snapshot
through the configured transport, debounced by dispatch.quiet. It runs
until interrupted; a pending push is flushed on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd, args[0])
		},
	}
}

// formSource holds the latest parsed form; the dispatcher collects from it
// at emission time.
type formSource struct {
	mu        sync.Mutex
	form      *dom.Element
	collector *collector.Collector
}

func (s *formSource) set(form *dom.Element) {
	s.mu.Lock()
	s.form = form
	s.mu.Unlock()
}

func (s *formSource) collect() *snapshot.Snapshot {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()
	return s.collector.Collect(form)
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	logger := logging.Named(a.logger, "watch").With(zap.String("file", path))

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	form, err := a.selectForm(doc)
	if err != nil {
		return err
	}

	ch, closeChannel, err := a.openChannel(ctx, doc, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeChannel()

	source := &formSource{
		form: form,
		collector: collector.New(
			collector.WithPrefix(a.cfg.Collector.Prefix),
			collector.WithLogger(logging.Named(a.logger, "collector")),
		),
	}
	dsp := dispatch.New(ch, source.collect,
		dispatch.WithQuiet(a.cfg.Dispatch.Quiet),
		dispatch.WithEvent(a.cfg.Dispatch.Event),
		dispatch.WithLogger(logging.Named(a.logger, "dispatch")),
		dispatch.WithMetrics(a.metrics),
		dispatch.WithContext(context.WithoutCancel(ctx)),
	)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// Initial push so the server starts from the file as it is.
	dsp.Notify()
	logger.Info("watching")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.serveMetrics(gctx) })
	g.Go(func() error {
		defer func() {
			if err := dsp.Flush(); err != nil && !errors.Is(err, dispatch.ErrNothingPending) {
				logger.Warn("final flush", zap.Error(err))
			}
			_ = dsp.Close()
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watcher error", zap.Error(err))
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				next, err := loadDocument(path)
				if err != nil {
					logger.Warn("reload failed", zap.Error(err))
					continue
				}
				nextForm, err := a.selectForm(next)
				if err != nil {
					logger.Warn("reload failed", zap.Error(err))
					continue
				}
				source.set(nextForm)
				dsp.Notify()
				logger.Debug("file changed", zap.String("op", event.Op.String()))
			}
		}
	})
	return g.Wait()
}
