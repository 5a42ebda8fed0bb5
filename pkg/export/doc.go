// Package export turns structured records into printable documents.
//
// A Document is a title, a few "Label: value" meta lines and sections of
// tables. Builders produce documents from domain records (project lists,
// module task lists, module plans and questionnaire snapshots); renderers
// registered in a Registry encode them as PDF, HTML or Markdown. Nothing in
// this package reads a rendered page: exports are computed from the same
// data the page was rendered from.
package export
