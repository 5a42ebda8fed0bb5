package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/pkg/collector"
	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/export/html"
	"github.com/goliatone/go-formsync/pkg/export/markdown"
	"github.com/goliatone/go-formsync/pkg/export/pdf"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

// Export kinds.
const (
	kindQuestionnaire = "questionnaire"
	kindProjects      = "projects"
	kindTasks         = "tasks"
	kindPlan          = "plan"
)

type exportFlags struct {
	kind      string
	input     string
	format    string
	outputDir string
	title     string
	themeFile string
}

// moduleInput is the file layout for the tasks and plan kinds.
type moduleInput struct {
	System  export.System   `json:"system" yaml:"system"`
	Tasks   []export.Task   `json:"tasks" yaml:"tasks"`
	Modules []export.Module `json:"modules" yaml:"modules"`
}

func exportCmd(a *app) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a questionnaire or project table to pdf, html or markdown",
		Long: `export builds a document from structured input and renders it.

Kinds:
  questionnaire  snapshot JSON, or an HTML file whose form is collected
  projects       list of projects (JSON or YAML)
  tasks          {system, tasks} (JSON or YAML)
  plan           {system, modules} (JSON or YAML)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.export(cmd, flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.kind, "kind", "k", kindQuestionnaire, "document kind (questionnaire, projects, tasks, plan)")
	f.StringVarP(&flags.input, "input", "i", "", "input file")
	f.StringVarP(&flags.format, "format", "f", "", "output format (default: export.format)")
	f.StringVarP(&flags.outputDir, "out", "o", "", "output directory (default: export.output_dir)")
	f.StringVar(&flags.title, "title", "", "document title for the projects kind")
	f.StringVar(&flags.themeFile, "theme-manifest", "", "go-theme manifest (YAML or JSON) supplying export tokens")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) export(cmd *cobra.Command, flags exportFlags) (string, error) {
	ctx := cmd.Context()
	logger := logging.Named(a.logger, "export")

	format := flags.format
	if format == "" {
		format = a.cfg.Export.Format
	}
	registry, err := newExportRegistry()
	if err != nil {
		return "", err
	}
	renderer, err := registry.Get(format)
	if err != nil {
		return "", err
	}

	doc, err := a.buildDocument(flags)
	if err != nil {
		return "", err
	}
	style, err := a.exportStyle(flags.themeFile)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = renderer.Render(ctx, &buf, doc, style)
	a.metrics.Exported(format, err)
	if err != nil {
		return "", err
	}

	dir := flags.outputDir
	if dir == "" {
		dir = a.cfg.Export.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	name := doc.Filename
	if name == "" {
		name = export.Filename(doc.Title, "")
	}
	path := filepath.Join(dir, export.WithExtension(name, renderer.Extension()))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("exported", zap.String("path", path), zap.String("format", format), zap.Int("bytes", buf.Len()))
	return path, nil
}

func newExportRegistry() (*export.Registry, error) {
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, err
	}
	mdRenderer, err := markdown.New(htmlRenderer)
	if err != nil {
		return nil, err
	}
	return export.NewRegistry(pdf.New(), htmlRenderer, mdRenderer)
}

func (a *app) buildDocument(flags exportFlags) (export.Document, error) {
	raw, err := os.ReadFile(flags.input)
	if err != nil {
		return export.Document{}, fmt.Errorf("read %s: %w", flags.input, err)
	}

	switch flags.kind {
	case kindQuestionnaire:
		snap, err := a.questionnaireSnapshot(flags.input, raw)
		if err != nil {
			return export.Document{}, err
		}
		return export.Questionnaire(snap), nil
	case kindProjects:
		var projects []export.Project
		if err := decode(flags.input, raw, &projects); err != nil {
			return export.Document{}, err
		}
		return export.ProjectList(flags.title, projects), nil
	case kindTasks, kindPlan:
		var in moduleInput
		if err := decode(flags.input, raw, &in); err != nil {
			return export.Document{}, err
		}
		if flags.kind == kindTasks {
			return export.ModuleTasks(in.System, in.Tasks), nil
		}
		return export.ModulePlan(in.System, in.Modules), nil
	default:
		return export.Document{}, fmt.Errorf("unknown export kind %q", flags.kind)
	}
}

// questionnaireSnapshot reads a snapshot from JSON, or collects it from the
// form of an HTML file.
func (a *app) questionnaireSnapshot(path string, raw []byte) (*snapshot.Snapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc, err := loadDocument(path)
		if err != nil {
			return nil, err
		}
		form, err := a.selectForm(doc)
		if err != nil {
			return nil, err
		}
		return collector.Collect(form, collector.WithPrefix(a.cfg.Collector.Prefix)), nil
	default:
		snap := snapshot.New()
		if err := json.Unmarshal(raw, snap); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
		return snap, nil
	}
}

func (a *app) exportStyle(manifestPath string) (export.Style, error) {
	cfg := a.cfg.Export
	if manifestPath == "" {
		if len(cfg.Tokens) > 0 {
			return export.StyleFromTokens(cfg.Tokens), nil
		}
		return export.DefaultStyle(), nil
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return export.Style{}, fmt.Errorf("read theme manifest: %w", err)
	}
	var manifest theme.Manifest
	if err := decode(manifestPath, raw, &manifest); err != nil {
		return export.Style{}, err
	}
	selector, err := export.Register(&manifest)
	if err != nil {
		return export.Style{}, err
	}
	style, err := export.ResolveStyle(selector, cfg.Theme, cfg.Variant)
	if err != nil {
		return export.Style{}, err
	}
	if len(cfg.Tokens) == 0 {
		return style, nil
	}
	// Config tokens win over the manifest.
	tokens := make(map[string]string, len(style.Tokens)+len(cfg.Tokens))
	for k, v := range style.Tokens {
		tokens[k] = v
	}
	for k, v := range cfg.Tokens {
		tokens[k] = v
	}
	merged := export.StyleFromTokens(tokens)
	merged.Theme, merged.Variant = style.Theme, style.Variant
	return merged, nil
}

// decode reads JSON or YAML by extension.
func decode(path string, raw []byte, into any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, into); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, into); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}
