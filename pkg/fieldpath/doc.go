// Package fieldpath decodes bracket-notation form field names such as
// `soal_selidik[fr][a][1][soalan]` into ordered segment paths and encodes
// them back. A trailing `[]` marks the field as array-valued; it is kept as
// a flag rather than as an empty segment so callers can accumulate values
// under the parent path.
package fieldpath
