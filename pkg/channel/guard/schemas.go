package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Schemas maps operation ids to their request body schemas.
type Schemas map[string]*openapi3.Schema

// LoadSchemas parses an OpenAPI document and collects the JSON (or form)
// request schema of every operation. Operations without an id are keyed as
// "<method>:<path>".
func LoadSchemas(ctx context.Context, raw []byte) (Schemas, error) {
	if len(raw) == 0 {
		return nil, errors.New("guard: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("guard: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("guard: validate document: %w", err)
	}

	out := make(Schemas)
	if doc.Paths == nil {
		return out, nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			schema := requestSchema(op.RequestBody)
			if schema == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out[id] = schema
		}
	}
	return out, nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt := body.Value.Content.Get(mediaType); mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}
