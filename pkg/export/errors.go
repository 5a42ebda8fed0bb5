package export

import "errors"

var (
	// ErrEmptyDocument is returned when a document has nothing to render.
	ErrEmptyDocument = errors.New("export: document is empty")
	// ErrUnknownFormat is returned by Registry lookups for unregistered formats.
	ErrUnknownFormat = errors.New("export: unknown format")
)
