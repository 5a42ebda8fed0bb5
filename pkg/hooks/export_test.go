package hooks_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/export/html"
	"github.com/goliatone/go-formsync/pkg/hooks"
)

type fileSink struct {
	mu    sync.Mutex
	files []hooks.File
}

func (s *fileSink) sink(_ context.Context, file hooks.File) error {
	s.mu.Lock()
	s.files = append(s.files, file)
	s.mu.Unlock()
	return nil
}

func (s *fileSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

func exportRegistry(t *testing.T) *export.Registry {
	t.Helper()
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("html renderer: %v", err)
	}
	registry, err := export.NewRegistry(renderer)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func projects(context.Context) (export.Document, error) {
	return export.ProjectList("Senarai Projek", []export.Project{
		{Name: "eTanah", Department: "JKPTG", Manager: "Aminah"},
	}), nil
}

func TestExportRunRendersAndSinks(t *testing.T) {
	sink := &fileSink{}
	f := newFixture(t,
		hooks.WithExports(exportRegistry(t)),
		hooks.WithSource("projects", hooks.SourceFunc(projects)),
		hooks.WithSink(sink.sink),
	)
	doc := mustDoc(t, `<button id="btn" phx-hook="PrintToPDF" data-format="html" data-source="projects">PDF</button>`)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	hook, _ := f.session.Hook(ids[0])

	file, err := hook.(*hooks.Export).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if file.Name != "Senarai_Projek.html" {
		t.Fatalf("unexpected file name %q", file.Name)
	}
	if file.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", file.ContentType)
	}
	if !bytes.Contains(file.Data, []byte("eTanah")) {
		t.Fatal("rendered file misses project row")
	}
	if sink.count() != 1 {
		t.Fatalf("expected sink to receive one file, got %d", sink.count())
	}
	if doc.ByID("btn").Disabled() {
		t.Fatal("button must be re-enabled after export")
	}
	if got := f.metrics.exports; len(got) != 1 || got[0] != "html:ok" {
		t.Fatalf("unexpected export metrics %v", got)
	}
}

func TestExportClickIgnoresSecondClickWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	slow := hooks.SourceFunc(func(ctx context.Context) (export.Document, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
			return export.Document{}, ctx.Err()
		}
		return projects(ctx)
	})

	sink := &fileSink{}
	f := newFixture(t,
		hooks.WithExports(exportRegistry(t)),
		hooks.WithSource("main-content", slow),
		hooks.WithSink(sink.sink),
	)
	doc := mustDoc(t, `<button id="btn" phx-hook="GeneratePDF" data-format="html">PDF</button>`)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	hook, _ := f.session.Hook(ids[0])
	exp := hook.(*hooks.Export)
	btn := doc.ByID("btn")

	btn.Click()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("export did not start")
	}
	if !exp.Busy() || !btn.Disabled() {
		t.Fatal("expected busy, disabled button while rendering")
	}
	if _, err := exp.Run(context.Background()); !errors.Is(err, hooks.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	btn.Click()

	close(release)
	exp.Wait()

	if sink.count() != 1 {
		t.Fatalf("expected a single export, got %d", sink.count())
	}
	if exp.Busy() || btn.Disabled() {
		t.Fatal("expected state restored after export")
	}
}

func TestExportFailureRestoresState(t *testing.T) {
	failing := hooks.SourceFunc(func(context.Context) (export.Document, error) {
		return export.Document{}, errors.New("tiada data")
	})
	f := newFixture(t,
		hooks.WithExports(exportRegistry(t)),
		hooks.WithSource("main-content", failing),
	)
	doc := mustDoc(t, `<button id="btn" phx-hook="Export" data-format="html" disabled>PDF</button>`)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	hook, _ := f.session.Hook(ids[0])

	if _, err := hook.(*hooks.Export).Run(context.Background()); err == nil {
		t.Fatal("expected export error")
	}
	btn := doc.ByID("btn")
	if !btn.Disabled() {
		t.Fatal("original disabled state must be restored")
	}
	if _, ok := btn.Attr("aria-busy"); ok {
		t.Fatal("aria-busy must be cleared")
	}
	if msg, ok := btn.Attr("data-export-error"); !ok || msg == "" {
		t.Fatal("expected error to be recorded on the element")
	}
	if f.metrics.exports[0] != "html:error" {
		t.Fatalf("unexpected export metrics %v", f.metrics.exports)
	}
}

func TestExportUnknownSourceAndFormat(t *testing.T) {
	f := newFixture(t, hooks.WithExports(exportRegistry(t)))
	doc := mustDoc(t, `<html><body>
<button id="a" phx-hook="Export" data-format="html" data-target="missing">A</button>
<button id="b" phx-hook="Export" data-format="docx">B</button>
</body></html>`)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	a, _ := f.session.Hook(ids[0])
	if _, err := a.(*hooks.Export).Run(context.Background()); !errors.Is(err, hooks.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	b, _ := f.session.Hook(ids[1])
	if _, err := b.(*hooks.Export).Run(context.Background()); !errors.Is(err, export.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestExportDestroyKeepsServerDisabledState(t *testing.T) {
	f := newFixture(t,
		hooks.WithExports(exportRegistry(t)),
		hooks.WithSource("main-content", hooks.SourceFunc(projects)),
	)
	doc := mustDoc(t, `<button id="btn" phx-hook="GeneratePDF" data-format="html" disabled>PDF</button>`)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	if err := f.session.Destroy(ids[0]); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if !doc.ByID("btn").Disabled() {
		t.Fatal("destroy must not re-enable a button rendered disabled")
	}
}
