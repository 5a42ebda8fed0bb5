package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/config"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/prompt"
)

const formPage = `<!doctype html>
<html><body>
<form id="questionnaire">
  <input type="hidden" name="_csrf_token" value="abc">
  <input type="text" name="answers[nama_sistem]" value="Sistem A">
  <input type="text" name="answers[fr][1][tajuk]" value="Log masuk">
  <textarea name="answers[fr][1][keterangan]">Pengguna log masuk</textarea>
  <input type="checkbox" name="answers[platform][]" value="web" checked>
  <input type="checkbox" name="answers[platform][]" value="mobile">
</form>
</body></html>`

const projectsJSON = `[
  {"name": "Portal Aduan", "department": "JKPTG", "manager": "Aminah",
   "start_date": "2024-01-02T00:00:00Z", "expected_end": "2024-06-30T00:00:00Z"}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// execute runs the root command with an explicit config so nothing from the
// working tree leaks in.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "formsync.yaml", "log:\n  level: error\n")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCollectPrintsNestedJSON(t *testing.T) {
	page := writeFile(t, t.TempDir(), "form.html", formPage)

	out := execute(t, "--prefix", "answers", "collect", page)

	for _, want := range []string{
		`"nama_sistem": "Sistem A"`,
		`"tajuk": "Log masuk"`,
		`"keterangan": "Pengguna log masuk"`,
		`"web"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "_csrf_token") || strings.Contains(out, "mobile") {
		t.Fatalf("unexpected field in output:\n%s", out)
	}
}

func TestCollectPrintsFormEncoding(t *testing.T) {
	page := writeFile(t, t.TempDir(), "form.html", formPage)

	out := execute(t, "--prefix", "answers", "collect", "-o", "form", "--root", "q", page)

	if !strings.Contains(out, "q%5Bnama_sistem%5D=Sistem+A") {
		t.Fatalf("expected encoded root field, got:\n%s", out)
	}
}

func TestCollectUnknownForm(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "form.html", formPage)
	cfgPath := writeFile(t, dir, "formsync.yaml", "log:\n  level: error\n")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "--form", "missing", "collect", page})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), `form "missing" not found`) {
		t.Fatalf("expected missing form error, got %v", err)
	}
}

func TestExportProjectsToHTML(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "projects.json", projectsJSON)
	outDir := filepath.Join(dir, "out")

	out := execute(t, "export", "--kind", "projects", "--input", input, "--format", "html", "--out", outDir)

	path := strings.TrimSpace(out)
	if filepath.Base(path) != "Senarai_Projek.html" {
		t.Fatalf("unexpected output path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	for _, want := range []string{"Portal Aduan", "JKPTG", "02/01/2024"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in export", want)
		}
	}
}

func TestExportQuestionnaireFromForm(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "form.html", formPage)

	out := execute(t, "--prefix", "answers", "export", "--input", page, "--format", "markdown", "--out", dir)

	path := strings.TrimSpace(out)
	if filepath.Base(path) != "Soal_Selidik_Sistem_A.md" {
		t.Fatalf("unexpected output path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Log masuk") {
		t.Fatalf("expected functional requirement in export:\n%s", data)
	}
}

type answerDriver struct {
	answers map[string]string
}

func (d answerDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	if v, ok := d.answers[cfg.Message]; ok {
		return v, nil
	}
	return cfg.Default, nil
}

func (d answerDriver) TextArea(ctx context.Context, cfg prompt.InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (answerDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	return cfg.Default, nil
}

func (answerDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	return cfg.DefaultIndex, nil
}

func (answerDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	return cfg.Defaults, nil
}

func (answerDriver) Info(context.Context, string) error { return nil }

func TestFillPushesAutosaveAndWritesHTML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "formsync.yaml", "log:\n  level: error\ncollector:\n  prefix: answers\n")
	output := filepath.Join(dir, "filled.html")

	a := &app{}
	if err := a.init(rootFlags{configPath: cfgPath}); err != nil {
		t.Fatalf("init: %v", err)
	}
	doc := dom.MustParseString(formPage)
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	driver := answerDriver{answers: map[string]string{"Nama Sistem": "Sistem B"}}
	if err := a.fill(context.Background(), cmd, doc, driver, output, false); err != nil {
		t.Fatalf("fill: %v", err)
	}

	pushed := out.String()
	if !strings.Contains(pushed, `"event":"autosave"`) || !strings.Contains(pushed, `"nama_sistem":"Sistem B"`) {
		t.Fatalf("expected autosave push with the new answer, got:\n%s", pushed)
	}
	filled, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read filled html: %v", err)
	}
	if !strings.Contains(string(filled), `value="Sistem B"`) {
		t.Fatalf("expected filled value in html:\n%s", filled)
	}
}

func TestMirrorTeesRemoteTransport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "formsync.yaml", "log:\n  level: error\n")
	a := &app{}
	if err := a.init(rootFlags{configPath: cfgPath, mirror: true}); err != nil {
		t.Fatalf("init: %v", err)
	}

	remote := channel.NewRecorder()
	var out bytes.Buffer

	// The memory transport already prints; nothing to mirror.
	if got := a.mirror(remote, &out); got != channel.Channel(remote) {
		t.Fatal("expected memory transport to be returned as is")
	}

	a.cfg.Transport.Kind = config.TransportNATS
	ch := a.mirror(remote, &out)
	if err := ch.Send(context.Background(), "autosave", map[string]any{"nama_sistem": "Sistem C"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if remote.Len() != 1 {
		t.Fatalf("expected remote to receive the message, got %d", remote.Len())
	}
	if !strings.Contains(out.String(), `"nama_sistem":"Sistem C"`) {
		t.Fatalf("expected mirrored JSON line, got %q", out.String())
	}
}
