package pdf_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/export/pdf"
)

func render(t *testing.T, doc export.Document) string {
	t.Helper()
	var buf bytes.Buffer
	r := pdf.New(pdf.WithCompression(false), pdf.WithCreationDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err := r.Render(context.Background(), &buf, doc, export.DefaultStyle()); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRenderProjectList(t *testing.T) {
	doc := export.ProjectList("Senarai Projek", []export.Project{
		{Name: "eTanah", Department: "JKPTG", Manager: "Aminah"},
	})
	out := render(t, doc)

	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatalf("expected PDF header, got %q", out[:8])
	}
	for _, want := range []string{"Semua Projek", "NAMA PROJEK", "eTanah", "JKPTG"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
	if strings.Contains(out, "TINDAKAN") {
		t.Fatalf("action column leaked into export")
	}
}

func TestRenderEmptyTablePaginates(t *testing.T) {
	empty := render(t, export.ModuleTasks(export.System{Name: "eTanah"}, nil))
	if !strings.Contains(empty, "Tiada tugasan ditemui.") {
		t.Fatalf("expected empty message")
	}

	var projects []export.Project
	for i := 0; i < 80; i++ {
		projects = append(projects, export.Project{Name: strings.Repeat("Projek panjang ", 4)})
	}
	long := render(t, export.ProjectList("Senarai Projek", projects))
	if !strings.Contains(long, "(2/") {
		t.Fatalf("expected the table to span several pages")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if err := pdf.New().Render(ctx, &buf, export.ProjectList("", nil), export.DefaultStyle()); err == nil {
		t.Fatalf("expected context error")
	}
}
