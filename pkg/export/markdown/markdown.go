// Package markdown renders export documents as GitHub-flavored Markdown by
// converting the HTML export.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/export/html"
)

// Renderer implements export.Renderer.
type Renderer struct {
	html      export.Renderer
	converter *md.Converter
}

var _ export.Renderer = (*Renderer)(nil)

// New wraps an HTML renderer. A nil renderer uses html.New().
func New(htmlRenderer export.Renderer) (*Renderer, error) {
	if htmlRenderer == nil {
		r, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("markdown: %w", err)
		}
		htmlRenderer = r
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("style", "title")
	return &Renderer{html: htmlRenderer, converter: converter}, nil
}

func (r *Renderer) Format() string      { return "markdown" }
func (r *Renderer) Extension() string   { return "md" }
func (r *Renderer) ContentType() string { return "text/markdown; charset=utf-8" }

// Render writes the Markdown document.
func (r *Renderer) Render(ctx context.Context, w io.Writer, doc export.Document, style export.Style) error {
	var buf bytes.Buffer
	if err := r.html.Render(ctx, &buf, doc, style); err != nil {
		return err
	}
	out, err := r.converter.ConvertString(buf.String())
	if err != nil {
		return fmt.Errorf("markdown: convert: %w", err)
	}
	if _, err := io.WriteString(w, strings.TrimSpace(out)+"\n"); err != nil {
		return fmt.Errorf("markdown: write: %w", err)
	}
	return nil
}
