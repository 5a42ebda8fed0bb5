// Package html renders export documents through the embedded pongo2 layout.
package html

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	tpl "github.com/goliatone/go-formsync/internal/template"
	"github.com/goliatone/go-formsync/pkg/export"
)

const layout = "export"

var (
	policyOnce sync.Once
	cellPolicy *bluemonday.Policy
	textPolicy *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		cellPolicy = bluemonday.StrictPolicy()
		textPolicy = bluemonday.UGCPolicy()
	})
	return cellPolicy, textPolicy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplates swaps the template engine.
func WithTemplates(engine tpl.Renderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithLayout renders a different template name.
func WithLayout(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.layout = name
		}
	}
}

// Renderer implements export.Renderer.
type Renderer struct {
	engine tpl.Renderer
	layout string
}

var _ export.Renderer = (*Renderer)(nil)

// New builds a renderer over the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{layout: layout}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		engine, err := tpl.New()
		if err != nil {
			return nil, fmt.Errorf("html: template engine: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

func (r *Renderer) Format() string      { return "html" }
func (r *Renderer) Extension() string   { return "html" }
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render writes the HTML document.
func (r *Renderer) Render(ctx context.Context, w io.Writer, doc export.Document, style export.Style) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.engine.RenderTemplate(r.layout, Context(doc, style), w); err != nil {
		return fmt.Errorf("html: render %q: %w", doc.Title, err)
	}
	return nil
}

// Context converts a document into the template data. Cell text is
// stripped of markup; section text keeps user-content formatting.
func Context(doc export.Document, style export.Style) map[string]any {
	strict, ugc := policies()

	orientation := string(doc.Orientation)
	if orientation == "" {
		orientation = string(export.Landscape)
	}

	meta := make([]any, 0, len(doc.Meta))
	for _, line := range doc.Meta {
		meta = append(meta, map[string]any{"label": line.Label, "value": line.Value})
	}

	sections := make([]any, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		tables := make([]any, 0, len(section.Tables))
		for _, table := range section.Tables {
			widths := table.ColumnWidths(100)
			headers := make([]any, len(table.Columns))
			for i, column := range table.Columns {
				headers[i] = map[string]any{"label": column, "width": widths[i]}
			}
			rows := make([]any, 0, len(table.Rows))
			for _, row := range table.NormalizedRows() {
				cells := make([]any, len(row))
				for i, cell := range row {
					cells[i] = strict.Sanitize(cell)
				}
				rows = append(rows, cells)
			}
			tables = append(tables, map[string]any{
				"title":         table.Title,
				"headers":       headers,
				"rows":          rows,
				"empty_message": table.EmptyMessage,
			})
		}
		sections = append(sections, map[string]any{
			"heading":    section.Heading,
			"text":       ugc.Sanitize(section.Text),
			"page_break": section.PageBreak,
			"tables":     tables,
		})
	}

	return map[string]any{
		"document": map[string]any{
			"title":       doc.Title,
			"orientation": orientation,
			"meta":        meta,
			"sections":    sections,
		},
		"style": map[string]any{
			"font":        style.Font,
			"heading":     style.Heading,
			"header_fill": style.HeaderFill,
			"header_text": style.HeaderText,
			"border":      style.Border,
			"row_border":  style.RowBorder,
		},
	}
}
