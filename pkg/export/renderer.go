package export

import (
	"context"
	"io"
)

// Renderer encodes a Document in one output format.
type Renderer interface {
	// Format is the registry key, e.g. "pdf".
	Format() string
	// Extension is the file extension without the dot.
	Extension() string
	ContentType() string
	Render(ctx context.Context, w io.Writer, doc Document, style Style) error
}
