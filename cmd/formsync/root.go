package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/internal/metrics"
	"github.com/goliatone/go-formsync/pkg/config"
	"github.com/goliatone/go-formsync/pkg/dom"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	prefix     string
	formID     string
	transport  string
	mirror     bool
}

func rootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Keep server-rendered forms in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `formsync reads forms from rendered HTML, serializes their bracket-notation
fields into a nested snapshot, debounces edits and pushes the result over a
Phoenix LiveView socket, NATS, or stdout. It also renders PDF, HTML and
Markdown exports of questionnaires and project tables.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default: nearest "+config.FileName+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (console, json)")
	pf.StringVar(&flags.prefix, "prefix", "", "collect only fields under this name root")
	pf.StringVar(&flags.formID, "form", "", "id of the form to read (default: first form)")
	pf.StringVar(&flags.transport, "transport", "", "sync transport (memory, phoenix, nats)")
	pf.BoolVar(&flags.mirror, "mirror", false, "also print pushed messages when syncing to phoenix or nats")

	cmd.AddCommand(
		collectCmd(a),
		watchCmd(a),
		fillCmd(a),
		exportCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func (a *app) init(flags rootFlags) error {
	path := flags.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Find(wd)
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Merge(&config.Config{
		Collector: config.CollectorConfig{Prefix: flags.prefix, FormID: flags.formID},
		Transport: config.TransportConfig{Kind: flags.transport, Mirror: flags.mirror},
		Log:       config.LogConfig{Level: flags.logLevel, Format: flags.logFormat},
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.metrics = metrics.New()
	if path != "" {
		logger.Debug("loaded config", zap.String("path", path))
	}
	return nil
}

// loadDocument parses an HTML file.
func loadDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// selectForm returns the configured form, or the first one.
func (a *app) selectForm(doc *dom.Document) (*dom.Element, error) {
	if id := a.cfg.Collector.FormID; id != "" {
		if form := doc.ByID(id); form != nil {
			return form, nil
		}
		return nil, fmt.Errorf("form %q not found", id)
	}
	if form := doc.FirstForm(); form != nil {
		return form, nil
	}
	return nil, errors.New("document has no form")
}

// serveMetrics exposes the Prometheus registry until ctx ends. An empty
// address disables it.
func (a *app) serveMetrics(ctx context.Context) error {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving metrics", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
