package export

import (
	"regexp"
	"strings"
)

const (
	// DefaultTitle names documents whose title is blank.
	DefaultTitle = "Dokumen"
	// QuestionnaireDefaultName is used when the system name is blank.
	QuestionnaireDefaultName = "Soal_Selidik_Keperluan_Pembangunan_Aplikasi"
)

var (
	nonWordOrSpace = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	nonAlnum       = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Filename derives a download name from a page title: punctuation becomes
// "_", whitespace runs collapse to "_". ext is appended when non-empty.
func Filename(title, ext string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	name := nonWordOrSpace.ReplaceAllString(title, "_")
	name = whitespaceRun.ReplaceAllString(name, "_")
	return withExt(name, ext)
}

// QuestionnaireFilename names a questionnaire export after its system.
func QuestionnaireFilename(system, ext string) string {
	system = strings.TrimSpace(system)
	if system == "" {
		return withExt(QuestionnaireDefaultName, ext)
	}
	return withExt("Soal_Selidik_"+nonAlnum.ReplaceAllString(system, "_"), ext)
}

// WithExtension replaces the extension of name.
func WithExtension(name, ext string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return withExt(name, ext)
}

func withExt(name, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
