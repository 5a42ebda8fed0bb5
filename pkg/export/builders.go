package export

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the day-first format used on every export.
const DateLayout = "02/01/2006"

// Project is a row of the project list.
type Project struct {
	Name        string    `json:"name" yaml:"name"`
	Department  string    `json:"department" yaml:"department"`
	Manager     string    `json:"manager" yaml:"manager"`
	StartDate   time.Time `json:"start_date" yaml:"start_date"`
	ExpectedEnd time.Time `json:"expected_end" yaml:"expected_end"`
}

// Task is a row of a module's task list.
type Task struct {
	Title    string    `json:"title" yaml:"title"`
	Phase    string    `json:"phase" yaml:"phase"`
	Version  string    `json:"version" yaml:"version"`
	Status   string    `json:"status" yaml:"status"`
	Priority string    `json:"priority" yaml:"priority"`
	Assignee string    `json:"assignee" yaml:"assignee"`
	Due      time.Time `json:"due" yaml:"due"`
}

// Module is a bar of the module Gantt chart.
type Module struct {
	Title     string    `json:"title" yaml:"title"`
	Phase     string    `json:"phase" yaml:"phase"`
	Version   string    `json:"version" yaml:"version"`
	Status    string    `json:"status" yaml:"status"`
	Priority  string    `json:"priority" yaml:"priority"`
	Developer string    `json:"developer" yaml:"developer"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
}

// Duration is the inclusive day count between Start and End.
func (m Module) Duration() (int, bool) {
	if m.Start.IsZero() || m.End.IsZero() || m.End.Before(m.Start) {
		return 0, false
	}
	start := time.Date(m.Start.Year(), m.Start.Month(), m.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(m.End.Year(), m.End.Month(), m.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1, true
}

// System identifies the project a module export belongs to.
type System struct {
	Name       string    `json:"name" yaml:"name"`
	Department string    `json:"department" yaml:"department"`
	Start      time.Time `json:"start" yaml:"start"`
	End        time.Time `json:"end" yaml:"end"`
}

// Period renders "start - end", or "" when either bound is missing.
func (s System) Period() string {
	if s.Start.IsZero() || s.End.IsZero() {
		return ""
	}
	return FormatDate(s.Start) + " - " + FormatDate(s.End)
}

// ProjectList builds the "Semua Projek" export. The action column of the
// on-screen table is not part of the export.
func ProjectList(title string, projects []Project) Document {
	if strings.TrimSpace(title) == "" {
		title = "Senarai Projek"
	}
	table := Table{
		Title:        "Semua Projek",
		Columns:      []string{"NAMA PROJEK", "JABATAN/AGENSI", "PENGURUS PROJEK", "TARIKH MULA", "TARIKH JANGKAAN SIAP"},
		Widths:       []float64{80, 65, 55, 40, 40},
		EmptyMessage: "Tiada data projek untuk dipaparkan",
	}
	for _, p := range projects {
		table.Rows = append(table.Rows, []string{
			p.Name, p.Department, p.Manager, FormatDate(p.StartDate), FormatDate(p.ExpectedEnd),
		})
	}
	return Document{
		Title:       title,
		Sections:    []Section{{Tables: []Table{table}}},
		Orientation: Landscape,
		Filename:    Filename(title, "pdf"),
	}
}

// ModuleTasks builds the "Modul Projek" export with its task list.
func ModuleTasks(system System, tasks []Task) Document {
	const title = "Modul Projek"
	table := Table{
		Title:        "Senarai Tugasan",
		Columns:      []string{"TUGASAN", "FASA", "VERSI", "STATUS", "KEUTAMAAN", "DITUGASKAN", "SASARAN"},
		Widths:       []float64{70, 25, 20, 35, 30, 50, 35},
		EmptyMessage: "Tiada tugasan ditemui.",
	}
	for _, t := range tasks {
		table.Rows = append(table.Rows, []string{
			t.Title, t.Phase, t.Version, t.Status, t.Priority, t.Assignee, FormatDate(t.Due),
		})
	}
	return Document{
		Title:       title,
		Meta:        systemMeta(system, false),
		Sections:    []Section{{Tables: []Table{table}}},
		Orientation: Landscape,
		Filename:    Filename(title, "pdf"),
	}
}

// ModulePlan builds the "Carta Gantt Modul" export, one row per module.
func ModulePlan(system System, modules []Module) Document {
	const title = "Carta Gantt Modul"
	table := Table{
		Columns:      []string{"TUGASAN", "FASA", "VERSI", "STATUS", "KEUTAMAAN", "PEMBANGUN", "TARIKH MULA", "TARIKH AKHIR", "TEMPOH"},
		Widths:       []float64{60, 20, 18, 30, 28, 45, 28, 28, 20},
		EmptyMessage: "Tiada data modul untuk dipaparkan",
	}
	for _, m := range modules {
		duration := ""
		if days, ok := m.Duration(); ok {
			duration = fmt.Sprintf("%d hari", days)
		}
		table.Rows = append(table.Rows, []string{
			m.Title, m.Phase, m.Version, m.Status, m.Priority, m.Developer,
			FormatDate(m.Start), FormatDate(m.End), duration,
		})
	}
	return Document{
		Title:       title,
		Meta:        systemMeta(system, true),
		Sections:    []Section{{Tables: []Table{table}}},
		Orientation: Landscape,
		Filename:    Filename(title, "pdf"),
	}
}

// FormatDate renders t day-first; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func systemMeta(system System, withPeriod bool) []MetaLine {
	var meta []MetaLine
	if v := strings.TrimSpace(system.Name); v != "" {
		meta = append(meta, MetaLine{Label: "Sistem", Value: v})
	}
	if v := strings.TrimSpace(system.Department); v != "" {
		meta = append(meta, MetaLine{Label: "Jabatan/Agensi", Value: v})
	}
	if withPeriod {
		if v := system.Period(); v != "" {
			meta = append(meta, MetaLine{Label: "Tempoh Projek", Value: v})
		}
	}
	return meta
}
