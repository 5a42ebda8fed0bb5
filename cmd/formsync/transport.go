package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/channel/guard"
	"github.com/goliatone/go-formsync/pkg/channel/natschan"
	"github.com/goliatone/go-formsync/pkg/channel/phoenix"
	"github.com/goliatone/go-formsync/pkg/config"
	"github.com/goliatone/go-formsync/pkg/dom"
)

// openChannel builds the configured transport, wrapped in the payload guard
// when one is configured. The returned close func releases the transport.
func (a *app) openChannel(ctx context.Context, doc *dom.Document, out io.Writer) (channel.Channel, func() error, error) {
	ch, closeFn, err := a.transport(ctx, doc, out)
	if err != nil {
		return nil, nil, err
	}
	ch = a.mirror(ch, out)

	g := a.cfg.Guard
	if g.Document == "" || len(g.Bindings) == 0 {
		return ch, closeFn, nil
	}
	raw, err := os.ReadFile(g.Document)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("read guard document: %w", err)
	}
	schemas, err := guard.LoadSchemas(ctx, raw)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	opts := []guard.Option{guard.WithStrict(g.Strict), guard.WithLogger(logging.Named(a.logger, "guard"))}
	for event, op := range g.Bindings {
		opts = append(opts, guard.WithBinding(event, op))
	}
	guarded, err := guard.New(ch, schemas, opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return guarded, closeFn, nil
}

func (a *app) transport(ctx context.Context, doc *dom.Document, out io.Writer) (channel.Channel, func() error, error) {
	t := a.cfg.Transport
	switch t.Kind {
	case config.TransportPhoenix:
		topic := t.Phoenix.Topic
		if topic == "" {
			topic = phoenix.Topic(doc)
		}
		token := t.Phoenix.CSRFToken
		if token == "" {
			token = phoenix.CSRFToken(doc)
		}
		socket := phoenix.New(t.Phoenix.URL, topic,
			phoenix.WithCSRFToken(token),
			phoenix.WithHeartbeat(t.Phoenix.Heartbeat),
			phoenix.WithLogger(logging.Named(a.logger, "phoenix")),
		)
		if err := socket.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return socket, socket.Close, nil

	case config.TransportNATS:
		pub, err := natschan.Connect(t.NATS.URL,
			natschan.WithSubjectPrefix(t.NATS.SubjectPrefix),
			natschan.WithFlush(t.NATS.Flush),
			natschan.WithLogger(logging.Named(a.logger, "nats")),
		)
		if err != nil {
			return nil, nil, err
		}
		return pub, pub.Close, nil

	default:
		return printChannel(out, a.logger), func() error { return nil }, nil
	}
}

// mirror tees a remote transport to out when transport.mirror is set.
func (a *app) mirror(ch channel.Channel, out io.Writer) channel.Channel {
	t := a.cfg.Transport
	if !t.Mirror || t.Kind == config.TransportMemory {
		return ch
	}
	return channel.Tee(ch, printChannel(out, a.logger))
}

// printChannel writes every message to out as one JSON line.
func printChannel(out io.Writer, logger *zap.Logger) channel.Channel {
	var mu sync.Mutex
	enc := json.NewEncoder(out)
	return channel.Func(func(ctx context.Context, event string, payload map[string]any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		logger.Debug("memory transport", zap.String("event", event))
		return enc.Encode(map[string]any{"event": event, "payload": payload})
	})
}
