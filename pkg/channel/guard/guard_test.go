package guard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/channel/guard"
)

const document = `openapi: 3.0.3
info:
  title: Live events
  version: "1.0"
paths:
  /sections/category:
    post:
      operationId: updateSectionCategory
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [section_id, category]
              properties:
                section_id:
                  type: string
                  minLength: 1
                category:
                  type: string
                  enum: [umum, teknikal, keselamatan]
      responses:
        "204":
          description: accepted
  /notifications/toggle:
    post:
      responses:
        "204":
          description: accepted
`

func loadSchemas(t *testing.T) guard.Schemas {
	t.Helper()
	schemas, err := guard.LoadSchemas(context.Background(), []byte(document))
	require.NoError(t, err)
	require.Contains(t, schemas, "updateSectionCategory")
	require.NotContains(t, schemas, "post:/notifications/toggle")
	return schemas
}

func TestGuardForwardsValidPayload(t *testing.T) {
	rec := channel.NewRecorder()
	ch, err := guard.New(rec, loadSchemas(t), guard.WithBinding("update_section_category", "updateSectionCategory"))
	require.NoError(t, err)

	err = ch.Send(context.Background(), "update_section_category", map[string]any{
		"section_id": "12",
		"category":   "teknikal",
	})
	require.NoError(t, err)
	require.Equal(t, 1, rec.Len())

	require.NoError(t, ch.Send(context.Background(), "toggle_notifications", nil))
	require.Equal(t, 2, rec.Len())
}

func TestGuardRejectsInvalidPayload(t *testing.T) {
	rec := channel.NewRecorder()
	ch, err := guard.New(rec, loadSchemas(t), guard.WithBinding("update_section_category", "updateSectionCategory"))
	require.NoError(t, err)

	err = ch.Send(context.Background(), "update_section_category", map[string]any{
		"section_id": "12",
		"category":   "lain",
	})
	var verr *guard.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	require.Equal(t, "updateSectionCategory", verr.Operation)
	require.Equal(t, 0, rec.Len())

	err = ch.Send(context.Background(), "update_section_category", map[string]any{"category": "umum"})
	require.Error(t, err)
}

func TestGuardStrictAndUnknownBindings(t *testing.T) {
	schemas := loadSchemas(t)
	_, err := guard.New(channel.Discard, schemas, guard.WithBinding("autosave", "missing"))
	require.ErrorIs(t, err, guard.ErrUnknownOperation)

	_, err = guard.New(nil, schemas)
	require.ErrorIs(t, err, channel.ErrNilChannel)

	ch, err := guard.New(channel.Discard, schemas, guard.WithStrict(true))
	require.NoError(t, err)
	require.Error(t, ch.Send(context.Background(), "autosave", nil))
}

func TestLoadSchemasEmpty(t *testing.T) {
	_, err := guard.LoadSchemas(context.Background(), nil)
	require.Error(t, err)
}
