// Package pdf renders export documents as A4 PDF tables with go-pdf/fpdf.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/goliatone/go-formsync/pkg/export"
)

const (
	margin     = 10.0
	lineHeight = 5.0
	cellPad    = 1.5
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompression toggles stream compression. Tests turn it off to inspect
// the content.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) {
		r.compress = enabled
	}
}

// WithCreationDate pins the document date for reproducible output.
func WithCreationDate(t time.Time) Option {
	return func(r *Renderer) {
		r.created = t
	}
}

// Renderer implements export.Renderer.
type Renderer struct {
	compress bool
	created  time.Time
}

var _ export.Renderer = (*Renderer)(nil)

// New constructs a PDF renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Format() string      { return "pdf" }
func (r *Renderer) Extension() string   { return "pdf" }
func (r *Renderer) ContentType() string { return "application/pdf" }

// Render writes doc to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, doc export.Document, style export.Style) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	orientation := "L"
	if doc.Orientation == export.Portrait {
		orientation = "P"
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetCompression(r.compress)
	if !r.created.IsZero() {
		pdf.SetCreationDate(r.created)
	}
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("formsync", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AliasNbPages("")

	w2 := &writer{pdf: pdf, style: style, tr: pdf.UnicodeTranslatorFromDescriptor(""), font: fontFamily(style.Font)}
	pdf.SetFooterFunc(w2.footer)
	pdf.AddPage()

	w2.title(doc.Title)
	w2.meta(doc.Meta)
	for i, section := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		if section.PageBreak && i > 0 {
			pdf.AddPage()
		}
		w2.section(section)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: layout: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: output: %w", err)
	}
	return nil
}

type writer struct {
	pdf   *fpdf.Fpdf
	style export.Style
	tr    func(string) string
	font  string
}

func (w *writer) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pageW - left - right
}

func (w *writer) bottom() float64 {
	_, pageH := w.pdf.GetPageSize()
	return pageH - margin - 8
}

func (w *writer) ensure(height float64) bool {
	if w.pdf.GetY()+height <= w.bottom() {
		return false
	}
	w.pdf.AddPage()
	return true
}

func (w *writer) title(title string) {
	if strings.TrimSpace(title) == "" {
		return
	}
	w.pdf.SetFont(w.font, "B", 18)
	w.setText(w.style.Heading)
	w.pdf.CellFormat(0, 10, w.tr(title), "", 1, "C", false, 0, "")
	w.pdf.Ln(2)
}

func (w *writer) meta(lines []export.MetaLine) {
	if len(lines) == 0 {
		return
	}
	w.setText("#000000")
	for i, line := range lines {
		size := 11.0
		style := ""
		if i == 0 {
			size, style = 14, "B"
		}
		w.pdf.SetFont(w.font, style, size)
		w.pdf.CellFormat(0, 7, w.tr(line.Label+": "+line.Value), "", 1, "L", false, 0, "")
	}
	w.pdf.Ln(3)
}

func (w *writer) section(section export.Section) {
	if section.Heading != "" {
		w.ensure(14)
		w.pdf.SetFont(w.font, "B", 14)
		w.setText(w.style.Heading)
		w.pdf.CellFormat(0, 8, w.tr(section.Heading), "B", 1, "L", false, 0, "")
		w.pdf.Ln(3)
	}
	if strings.TrimSpace(section.Text) != "" {
		w.pdf.SetFont(w.font, "", 10)
		w.setText("#000000")
		w.pdf.MultiCell(0, lineHeight, w.tr(section.Text), "", "L", false)
		w.pdf.Ln(2)
	}
	for _, table := range section.Tables {
		w.table(table)
	}
}

func (w *writer) table(table export.Table) {
	if table.Title != "" {
		w.ensure(20)
		w.pdf.SetFont(w.font, "B", 12)
		w.setText("#000000")
		w.pdf.CellFormat(0, 8, w.tr(table.Title), "", 1, "L", false, 0, "")
	}
	if table.Empty() {
		w.pdf.SetFont(w.font, "", 10)
		w.setText("#646464")
		message := table.EmptyMessage
		if message == "" {
			message = export.Placeholder
		}
		w.pdf.CellFormat(0, 7, w.tr(message), "", 1, "L", false, 0, "")
		w.pdf.Ln(3)
		return
	}

	widths := table.ColumnWidths(w.contentWidth())
	w.header(table.Columns, widths)

	w.pdf.SetFont(w.font, "", 9)
	for _, row := range table.NormalizedRows() {
		height := w.rowHeight(row, widths)
		if w.ensure(height) {
			w.header(table.Columns, widths)
			w.pdf.SetFont(w.font, "", 9)
		}
		w.setDraw(w.style.RowBorder)
		w.setText("#000000")
		w.row(row, widths, height, false)
	}
	w.pdf.Ln(4)
}

func (w *writer) header(columns []string, widths []float64) {
	w.pdf.SetFont(w.font, "B", 9)
	w.setFill(w.style.HeaderFill)
	w.setDraw(w.style.Border)
	w.setText(w.style.HeaderText)
	height := w.rowHeight(columns, widths)
	w.row(columns, widths, height, true)
}

func (w *writer) rowHeight(cells []string, widths []float64) float64 {
	lines := 1
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		n := len(w.pdf.SplitLines([]byte(w.tr(cell)), widths[i]-2*cellPad))
		if n > lines {
			lines = n
		}
	}
	return float64(lines)*lineHeight + 2*cellPad
}

func (w *writer) row(cells []string, widths []float64, height float64, fill bool) {
	x, y := w.pdf.GetXY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		w.pdf.Rect(x, y, widths[i], height, style)
		lines := w.pdf.SplitLines([]byte(w.tr(cell)), widths[i]-2*cellPad)
		for j, line := range lines {
			w.pdf.SetXY(x+cellPad, y+cellPad+float64(j)*lineHeight)
			w.pdf.CellFormat(widths[i]-2*cellPad, lineHeight, string(line), "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	left, _, _, _ := w.pdf.GetMargins()
	w.pdf.SetXY(left, y+height)
}

func (w *writer) footer() {
	w.pdf.SetY(-margin - 2)
	w.pdf.SetFont(w.font, "", 8)
	w.setText("#646464")
	w.pdf.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", w.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (w *writer) setFill(hex string) {
	if r, g, b, ok := export.RGB(hex); ok {
		w.pdf.SetFillColor(r, g, b)
	}
}

func (w *writer) setDraw(hex string) {
	if r, g, b, ok := export.RGB(hex); ok {
		w.pdf.SetDrawColor(r, g, b)
	}
}

func (w *writer) setText(hex string) {
	if r, g, b, ok := export.RGB(hex); ok {
		w.pdf.SetTextColor(r, g, b)
	}
}

// fontFamily maps a theme font to one of the PDF core fonts.
func fontFamily(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "times", "times new roman", "serif":
		return "Times"
	case "courier", "monospace":
		return "Courier"
	default:
		return "Helvetica"
	}
}
