package export

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-formsync/pkg/snapshot"
)

// Questionnaire section keys and headings.
const (
	QuestionnaireTitle = "Soal Selidik Keperluan Pembangunan Aplikasi"
	FunctionalKey      = "fr"
	NonFunctionalKey   = "nfr"
	FunctionalHeading  = "FUNCTIONAL REQUIREMENT"
	NonFunctionalHead  = "NON-FUNCTIONAL REQUIREMENT"
	SystemNameKey      = "nama_sistem"
)

// QuestionnaireOption configures Questionnaire.
type QuestionnaireOption func(*questionnaireConfig)

type questionnaireConfig struct {
	labels    map[string]string
	systemKey string
}

// WithLabels maps snapshot keys to display labels.
func WithLabels(labels map[string]string) QuestionnaireOption {
	return func(cfg *questionnaireConfig) {
		for k, v := range labels {
			cfg.labels[k] = v
		}
	}
}

// WithSystemKey sets the key holding the system name used for the filename.
func WithSystemKey(key string) QuestionnaireOption {
	return func(cfg *questionnaireConfig) {
		if key != "" {
			cfg.systemKey = key
		}
	}
}

// Questionnaire lays out a collected questionnaire snapshot (prefix already
// stripped). Top-level answers become meta lines, the fr and nfr trees
// become the functional and non-functional sections, other trees get a
// section each. Checkbox lists are joined with ", " and blank answers print
// as "-".
func Questionnaire(snap *snapshot.Snapshot, opts ...QuestionnaireOption) Document {
	cfg := &questionnaireConfig{labels: map[string]string{}, systemKey: SystemNameKey}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	doc := Document{Title: QuestionnaireTitle, Orientation: Landscape}
	if snap == nil {
		snap = snapshot.New()
	}

	var extra []Section
	for _, key := range snap.Keys() {
		value, _ := snap.Get(key)
		switch {
		case value.Kind() != snapshot.KindTree:
			doc.Meta = append(doc.Meta, MetaLine{Label: cfg.label(key), Value: answer(value)})
		case key == FunctionalKey || key == NonFunctionalKey:
		default:
			extra = append(extra, Section{Heading: strings.ToUpper(cfg.label(key)), Tables: cfg.tables(value.Tree())})
		}
	}

	if value, ok := snap.Get(FunctionalKey); ok && value.Kind() == snapshot.KindTree {
		doc.Sections = append(doc.Sections, Section{Heading: FunctionalHeading, Tables: cfg.tables(value.Tree())})
	}
	if value, ok := snap.Get(NonFunctionalKey); ok && value.Kind() == snapshot.KindTree {
		doc.Sections = append(doc.Sections, Section{
			Heading:   NonFunctionalHead,
			Tables:    cfg.tables(value.Tree()),
			PageBreak: len(doc.Sections) > 0,
		})
	}
	doc.Sections = append(doc.Sections, extra...)

	system := ""
	if value, ok := snap.Get(cfg.systemKey); ok && value.Kind() == snapshot.KindScalar {
		system = value.String()
	}
	doc.Filename = QuestionnaireFilename(system, "pdf")
	return doc
}

// tables turns one section tree into tables: loose answers at this level go
// into a leading two-column table, every child tree becomes its own table.
func (cfg *questionnaireConfig) tables(tree *snapshot.Snapshot) []Table {
	var loose Table
	var out []Table
	for _, key := range tree.Keys() {
		value, _ := tree.Get(key)
		if value.Kind() != snapshot.KindTree {
			loose.Rows = append(loose.Rows, []string{cfg.label(key), answer(value)})
			continue
		}
		out = append(out, cfg.group(key, value.Tree()))
	}
	if len(loose.Rows) > 0 {
		loose.Columns = []string{"PERKARA", "JAWAPAN"}
		loose.Widths = []float64{1, 2}
		out = append([]Table{loose}, out...)
	}
	return out
}

// group renders a child tree. When every entry is itself a tree (numbered
// questions) each entry is a row and the union of their fields are the
// columns; otherwise the tree is flattened into item/answer rows.
func (cfg *questionnaireConfig) group(key string, tree *snapshot.Snapshot) Table {
	table := Table{Title: cfg.label(key), EmptyMessage: Placeholder}

	if rowsOnly(tree) {
		var fields []string
		seen := map[string]bool{}
		for _, rowKey := range tree.Keys() {
			row, _ := tree.Get(rowKey)
			for _, field := range row.Tree().Keys() {
				if !seen[field] {
					seen[field] = true
					fields = append(fields, field)
				}
			}
		}
		table.Columns = append(table.Columns, "NO")
		for _, field := range fields {
			table.Columns = append(table.Columns, strings.ToUpper(cfg.label(field)))
		}
		for _, rowKey := range tree.Keys() {
			row, _ := tree.Get(rowKey)
			cells := []string{rowKey}
			for _, field := range fields {
				value, ok := row.Tree().Get(field)
				if !ok {
					cells = append(cells, Placeholder)
					continue
				}
				cells = append(cells, answer(value))
			}
			table.Rows = append(table.Rows, cells)
		}
		return table
	}

	table.Columns = []string{"PERKARA", "JAWAPAN"}
	table.Widths = []float64{1, 2}
	tree.Walk(func(path []string, value snapshot.Value) {
		labels := make([]string, len(path))
		for i, segment := range path {
			labels[i] = cfg.label(segment)
		}
		table.Rows = append(table.Rows, []string{strings.Join(labels, " / "), answer(value)})
	})
	return table
}

func (cfg *questionnaireConfig) label(key string) string {
	if v, ok := cfg.labels[key]; ok && v != "" {
		return v
	}
	return Humanize(key)
}

func rowsOnly(tree *snapshot.Snapshot) bool {
	if tree.Len() == 0 {
		return false
	}
	for _, key := range tree.Keys() {
		value, _ := tree.Get(key)
		if value.Kind() != snapshot.KindTree {
			return false
		}
		for _, field := range value.Tree().Keys() {
			inner, _ := value.Tree().Get(field)
			if inner.Kind() == snapshot.KindTree {
				return false
			}
		}
	}
	return true
}

// answer formats a leaf: lists are joined with ", ", blanks become "-".
func answer(value snapshot.Value) string {
	switch value.Kind() {
	case snapshot.KindList:
		var parts []string
		for _, item := range value.Strings() {
			if strings.TrimSpace(item) != "" {
				parts = append(parts, item)
			}
		}
		if len(parts) == 0 {
			return Placeholder
		}
		return strings.Join(parts, ", ")
	case snapshot.KindTree:
		return Placeholder
	default:
		return cellText(value.String())
	}
}

// Humanize turns snake_case keys into title-cased labels.
func Humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}
