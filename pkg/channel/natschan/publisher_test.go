package natschan

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formsync/pkg/channel"
)

type published struct {
	subject string
	data    []byte
}

type stubConn struct {
	mu       sync.Mutex
	messages []published
	flushed  int
	drained  bool
	err      error
}

func (c *stubConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{subject: subject, data: data})
	return nil
}

func (c *stubConn) FlushWithContext(context.Context) error {
	c.mu.Lock()
	c.flushed++
	c.mu.Unlock()
	return nil
}

func (c *stubConn) Drain() error {
	c.drained = true
	return nil
}

func TestPublisherEnvelope(t *testing.T) {
	conn := &stubConn{}
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	pub := New(conn,
		WithSubjectPrefix(" app.forms. "),
		WithFlush(true),
		WithClock(func() time.Time { return at }),
	)
	pub.newID = func() string { return "id-1" }

	err := pub.Send(context.Background(), "autosave", map[string]any{"nama_sistem": "eTanah"})
	require.NoError(t, err)
	require.Len(t, conn.messages, 1)
	require.Equal(t, "app.forms.autosave", conn.messages[0].subject)
	require.Equal(t, 1, conn.flushed)

	var env Envelope
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &env))
	require.Equal(t, "id-1", env.ID)
	require.Equal(t, "autosave", env.Event)
	require.Equal(t, "eTanah", env.Payload["nama_sistem"])
	require.True(t, env.SentAt.Equal(at))
}

func TestPublisherRejectsWildcardEvents(t *testing.T) {
	pub := New(&stubConn{})
	for _, event := range []string{"", "a b", "a.*", "a.>"} {
		require.ErrorIs(t, pub.Send(context.Background(), event, nil), channel.ErrInvalidEvent, event)
	}
}

func TestPublisherErrors(t *testing.T) {
	boom := errors.New("boom")
	pub := New(&stubConn{err: boom})
	require.ErrorIs(t, pub.Send(context.Background(), "autosave", nil), boom)

	var nilPub *Publisher
	require.ErrorIs(t, nilPub.Send(context.Background(), "autosave", nil), channel.ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, New(&stubConn{}).Send(ctx, "autosave", nil), context.Canceled)
}

func TestPublisherCloseDrains(t *testing.T) {
	conn := &stubConn{}
	require.NoError(t, New(conn).Close())
	require.True(t, conn.drained)
	require.Equal(t, DefaultSubjectPrefix+".x", New(conn).Subject("x"))
}
