package hooks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/export"
)

// Export defaults.
const (
	DefaultExportFormat = "pdf"
	DefaultExportSource = "main-content"
	exportErrorAttr     = "data-export-error"
)

// ExportSource supplies the structured document behind an export button.
type ExportSource interface {
	ExportDocument(ctx context.Context) (export.Document, error)
}

// SourceFunc adapts a function to ExportSource.
type SourceFunc func(ctx context.Context) (export.Document, error)

func (f SourceFunc) ExportDocument(ctx context.Context) (export.Document, error) { return f(ctx) }

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sink receives rendered files.
type Sink func(ctx context.Context, file File) error

// Export renders a document when its element is clicked. The element reads
// data-format (default pdf) and data-source, falling back to data-target.
// Clicks on a disabled element, or while a render runs, are ignored. The
// element is disabled during the render and its previous state restored
// afterwards, also on failure.
type Export struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	busy   bool
	closed bool
	detach func()
	wg     sync.WaitGroup
}

// NewExport is the Export factory.
func NewExport(deps Deps) (Hook, error) {
	return &Export{deps: deps.withDefaults()}, nil
}

func (h *Export) Mounted(context.Context) error {
	h.ctx, h.cancel = context.WithCancel(h.deps.Context)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach = h.deps.Element.AddEventListener(dom.EventClick, func(dom.Event) { h.start() })
	return nil
}

func (h *Export) Updated(context.Context) error { return nil }

// Destroyed detaches the click listener, cancels a running export and
// waits for it to return. The running export restores the element's
// disabled state itself.
func (h *Export) Destroyed() {
	h.mu.Lock()
	h.closed = true
	if h.detach != nil {
		h.detach()
		h.detach = nil
	}
	h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

// Busy reports whether an export is running.
func (h *Export) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.busy
}

// Wait blocks until background exports started by clicks have finished.
func (h *Export) Wait() { h.wg.Wait() }

func (h *Export) start() {
	h.mu.Lock()
	if h.closed || h.busy || h.deps.Element.Disabled() {
		h.mu.Unlock()
		h.deps.Logger.Debug("hooks: export click ignored")
		return
	}
	h.busy = true
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		if _, err := h.run(h.ctx); err != nil {
			h.deps.Logger.Warn("hooks: export failed", zap.Error(err))
		}
	}()
}

// Run renders the export synchronously and hands it to the sink.
func (h *Export) Run(ctx context.Context) (File, error) {
	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		return File{}, ErrBusy
	}
	h.busy = true
	h.mu.Unlock()
	return h.run(ctx)
}

// run expects busy to be set and clears it on return.
func (h *Export) run(ctx context.Context) (File, error) {
	el := h.deps.Element
	wasDisabled := el.Disabled()
	el.SetDisabled(true)
	el.SetAttr("aria-busy", "true")
	defer func() {
		el.SetDisabled(wasDisabled)
		el.RemoveAttr("aria-busy")
		h.mu.Lock()
		h.busy = false
		h.mu.Unlock()
	}()

	format := idOr(strings.TrimSpace(el.Dataset("format")), DefaultExportFormat)
	file, err := h.render(ctx, format)
	h.deps.Metrics.Exported(format, err)
	if err != nil {
		el.SetAttr(exportErrorAttr, err.Error())
		return File{}, err
	}
	el.RemoveAttr(exportErrorAttr)

	if h.deps.Sink != nil {
		if err := h.deps.Sink(ctx, file); err != nil {
			return File{}, fmt.Errorf("hooks: export sink: %w", err)
		}
	}
	h.deps.Logger.Debug("hooks: exported",
		zap.String("file", file.Name),
		zap.Int("bytes", len(file.Data)),
	)
	return file, nil
}

func (h *Export) render(ctx context.Context, format string) (File, error) {
	if h.deps.Exports == nil {
		return File{}, fmt.Errorf("hooks: export: %w: %q", export.ErrUnknownFormat, format)
	}
	renderer, err := h.deps.Exports.Get(format)
	if err != nil {
		return File{}, fmt.Errorf("hooks: export: %w", err)
	}

	key := h.sourceKey()
	src, ok := h.deps.Sources[key]
	if !ok {
		return File{}, fmt.Errorf("%w: %q", ErrNoSource, key)
	}
	doc, err := src.ExportDocument(ctx)
	if err != nil {
		return File{}, fmt.Errorf("hooks: export source %q: %w", key, err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf, doc, h.deps.Style); err != nil {
		return File{}, fmt.Errorf("hooks: export render: %w", err)
	}

	name := doc.Filename
	if name == "" {
		name = export.Filename(doc.Title, renderer.Extension())
	} else {
		name = export.WithExtension(name, renderer.Extension())
	}
	return File{Name: name, ContentType: renderer.ContentType(), Data: buf.Bytes()}, nil
}

func (h *Export) sourceKey() string {
	el := h.deps.Element
	if v := strings.TrimSpace(el.Dataset("source")); v != "" {
		return v
	}
	if v := strings.TrimSpace(el.Dataset("target")); v != "" {
		return v
	}
	return DefaultExportSource
}
