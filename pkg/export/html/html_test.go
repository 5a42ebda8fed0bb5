package html_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/export/html"
)

func TestRenderSanitizesCells(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	doc := export.ProjectList("Senarai Projek", []export.Project{
		{Name: `<script>alert(1)</script>eTanah`, Department: "JKPTG & Co"},
	})
	doc.Sections[0].Text = `<p onclick="x()">Nota <b>penting</b></p>`

	var buf bytes.Buffer
	if err := r.Render(context.Background(), &buf, doc, export.DefaultStyle()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>") || strings.Contains(out, "onclick") {
		t.Fatalf("unsanitized markup in output:\n%s", out)
	}
	for _, want := range []string{"<h1>Senarai Projek</h1>", "<h3>Semua Projek</h3>", "eTanah", "JKPTG &amp; Co", "<b>penting</b>", "background: #f5f5f5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if r.Format() != "html" || r.Extension() != "html" {
		t.Fatalf("unexpected renderer identity")
	}
}

func TestRenderQuestionnaireSections(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	doc := export.Document{
		Title: "Soal Selidik",
		Sections: []export.Section{
			{Heading: "FUNCTIONAL REQUIREMENT", Tables: []export.Table{{Columns: []string{"PERKARA", "JAWAPAN"}, Rows: [][]string{{"Log masuk", ""}}}}},
			{Heading: "NON-FUNCTIONAL REQUIREMENT", PageBreak: true},
		},
	}
	var buf bytes.Buffer
	if err := r.Render(context.Background(), &buf, doc, export.DefaultStyle()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `class="page-break"`) || !strings.Contains(out, "<td>-</td>") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
