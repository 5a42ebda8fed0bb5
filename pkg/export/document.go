package export

import "strings"

// Placeholder is written for empty cells and empty answers.
const Placeholder = "-"

// Orientation of the printed page.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Document is a renderer-neutral export.
type Document struct {
	Title       string
	Meta        []MetaLine
	Sections    []Section
	Orientation Orientation
	// Filename is the suggested download name, extension included.
	Filename string
}

// MetaLine renders as "Label: Value".
type MetaLine struct {
	Label string
	Value string
}

// Section groups tables and free text under an optional heading. PageBreak
// asks paginated renderers to start the section on a new page.
type Section struct {
	Heading   string
	Text      string
	Tables    []Table
	PageBreak bool
}

// Table is a titled grid. Widths are relative column weights; when absent
// columns share the width equally.
type Table struct {
	Title        string
	Columns      []string
	Rows         [][]string
	Widths       []float64
	EmptyMessage string
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Cell returns the cell text, or Placeholder when out of range or blank.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Placeholder
	}
	return cellText(t.Rows[row][col])
}

// NormalizedRows pads or truncates every row to the column count and fills
// blanks with Placeholder.
func (t Table) NormalizedRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = t.Cell(i, j)
		}
		out[i] = row
	}
	return out
}

// ColumnWidths scales the relative widths to total. Missing or non-positive
// weights count as 1.
func (t Table) ColumnWidths(total float64) []float64 {
	n := len(t.Columns)
	if n == 0 {
		return nil
	}
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		w := 1.0
		if i < len(t.Widths) && t.Widths[i] > 0 {
			w = t.Widths[i]
		}
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] = weights[i] / sum * total
	}
	return weights
}

func cellText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	return value
}
