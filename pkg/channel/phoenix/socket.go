// Package phoenix implements channel.Channel over a Phoenix LiveView
// websocket: it joins one topic and pushes hook events on it.
package phoenix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
)

const (
	// DefaultHeartbeat matches the Phoenix JS client.
	DefaultHeartbeat   = 30 * time.Second
	defaultJoinTimeout = 10 * time.Second
	protocolVersion    = "2.0.0"
	csrfParam          = "_csrf_token"
	outboundBuffer     = 64
)

// ErrJoinRejected is returned when the server replies to phx_join with an
// error status.
var ErrJoinRejected = errors.New("phoenix: join rejected")

// Option configures a Socket.
type Option func(*Socket)

// WithCSRFToken sets the _csrf_token connect parameter.
func WithCSRFToken(token string) Option {
	return func(s *Socket) {
		if token = strings.TrimSpace(token); token != "" {
			s.params.Set(csrfParam, token)
		}
	}
}

// WithParam adds a connect parameter.
func WithParam(key, value string) Option {
	return func(s *Socket) {
		if key != "" {
			s.params.Set(key, value)
		}
	}
}

// WithJoinPayload sets the phx_join payload.
func WithJoinPayload(payload map[string]any) Option {
	return func(s *Socket) {
		if payload != nil {
			s.joinPayload = payload
		}
	}
}

// WithHeartbeat overrides the heartbeat interval. Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Socket) {
		if d >= 0 {
			s.heartbeat = d
		}
	}
}

// WithJoinTimeout bounds the wait for the join reply.
func WithJoinTimeout(d time.Duration) Option {
	return func(s *Socket) {
		if d > 0 {
			s.joinTimeout = d
		}
	}
}

// WithDialer swaps the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(s *Socket) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

// WithHeader adds a handshake header, e.g. a session cookie.
func WithHeader(key, value string) Option {
	return func(s *Socket) {
		s.header.Add(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Socket) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Socket is a single-topic Phoenix channel client. Outbound frames are
// written by one goroutine so pushes keep their send order.
type Socket struct {
	endpoint    string
	topic       string
	params      url.Values
	header      http.Header
	joinPayload map[string]any
	heartbeat   time.Duration
	joinTimeout time.Duration
	dialer      *websocket.Dialer
	logger      *zap.Logger

	ref     atomic.Uint64
	mu        sync.Mutex
	joinRef   string
	conn      *websocket.Conn
	connected bool
	closed    bool
	replies   map[string]chan Reply
	outbound  chan outbound
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	failure   error
}

type outbound struct {
	frame Frame
	sent  chan error
}

var _ channel.Channel = (*Socket)(nil)

// New creates a Socket for endpoint (e.g. ws://host/live) and topic
// (e.g. lv:phx-F1234).
func New(endpoint, topic string, opts ...Option) *Socket {
	s := &Socket{
		endpoint:    endpoint,
		topic:       topic,
		params:      url.Values{},
		header:      http.Header{},
		joinPayload: map[string]any{},
		heartbeat:   DefaultHeartbeat,
		joinTimeout: defaultJoinTimeout,
		dialer:      websocket.DefaultDialer,
		logger:      zap.NewNop(),
		replies:     make(map[string]chan Reply),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Topic returns the joined topic.
func (s *Socket) Topic() string { return s.topic }

// URL returns the websocket URL including connect parameters.
func (s *Socket) URL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("phoenix: parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if !strings.HasSuffix(u.Path, "/websocket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/websocket"
	}
	q := u.Query()
	for key, values := range s.params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("vsn", protocolVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the endpoint, starts the reader and writer, and joins the
// topic. It returns once the join reply arrived.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return channel.ErrClosed
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	target, err := s.URL()
	if err != nil {
		return err
	}
	conn, resp, err := s.dialer.DialContext(ctx, target, s.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("phoenix: dial %s: %w", s.endpoint, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.joinRef = s.nextRef()
	s.connected = true
	s.outbound = make(chan outbound, outboundBuffer)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(2)
	go s.readLoop(conn)
	go s.writeLoop(conn)

	if err := s.join(ctx); err != nil {
		s.Close()
		return err
	}
	s.logger.Info("phoenix: joined", zap.String("topic", s.topic))
	return nil
}

func (s *Socket) join(ctx context.Context) error {
	payload, err := json.Marshal(s.joinPayload)
	if err != nil {
		return fmt.Errorf("phoenix: encode join payload: %w", err)
	}
	ref := s.currentJoinRef()
	replies := s.awaitReply(ref)
	frame := Frame{JoinRef: ref, Ref: ref, Topic: s.topic, Event: EventJoin, Payload: payload}
	if err := s.enqueue(ctx, frame); err != nil {
		return err
	}

	timer := time.NewTimer(s.joinTimeout)
	defer timer.Stop()
	select {
	case reply := <-replies:
		if !reply.OK() {
			return fmt.Errorf("%w: %s", ErrJoinRejected, strings.TrimSpace(string(reply.Response)))
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("phoenix: join: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("phoenix: join: timed out after %s", s.joinTimeout)
	case <-s.doneChan():
		return fmt.Errorf("phoenix: join: %w", s.err())
	}
}

// Send pushes a hook event on the joined topic. It returns after the frame
// was written to the connection.
func (s *Socket) Send(ctx context.Context, event string, payload map[string]any) error {
	if strings.TrimSpace(event) == "" {
		return channel.ErrInvalidEvent
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(HookPayload{Type: "hook", Event: event, Value: payload})
	if err != nil {
		return fmt.Errorf("phoenix: encode %s: %w", event, err)
	}
	return s.enqueue(ctx, Frame{
		JoinRef: s.currentJoinRef(),
		Ref:     s.nextRef(),
		Topic:   s.topic,
		Event:   EventHook,
		Payload: body,
	})
}

// Close leaves the topic, closes the connection and waits for the
// background goroutines.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		conn := s.conn
		done := s.done
		s.mu.Unlock()
		if conn == nil {
			return
		}
		select {
		case <-done:
		default:
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		}
		_ = conn.Close()
		s.wg.Wait()
	})
	return nil
}

func (s *Socket) enqueue(ctx context.Context, frame Frame) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return channel.ErrClosed
	}
	if !s.connected {
		s.mu.Unlock()
		return channel.ErrNotConnected
	}
	out, done := s.outbound, s.done
	s.mu.Unlock()

	msg := outbound{frame: frame, sent: make(chan error, 1)}
	select {
	case out <- msg:
	case <-done:
		return fmt.Errorf("phoenix: send %s: %w", frame.Event, s.err())
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-msg.sent:
		return err
	case <-done:
		return fmt.Errorf("phoenix: send %s: %w", frame.Event, s.err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Socket) writeLoop(conn *websocket.Conn) {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	done := s.doneChan()

	for {
		select {
		case <-done:
			return
		case msg := <-s.outbound:
			msg.sent <- s.write(conn, msg.frame)
		case <-tick:
			frame := Frame{Ref: s.nextRef(), Topic: heartbeatTopic, Event: EventHeartbeat}
			if err := s.write(conn, frame); err != nil {
				s.logger.Warn("phoenix: heartbeat failed", zap.Error(err))
			}
		}
	}
}

func (s *Socket) write(conn *websocket.Conn, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("phoenix: encode frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("phoenix: write %s: %w", frame.Event, err)
	}
	return nil
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.fail(err)
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warn("phoenix: dropping malformed frame", zap.Error(err))
			continue
		}
		s.handle(frame)
	}
}

func (s *Socket) handle(frame Frame) {
	switch frame.Event {
	case EventReply:
		var reply Reply
		if err := json.Unmarshal(frame.Payload, &reply); err != nil {
			s.logger.Warn("phoenix: malformed reply", zap.Error(err))
			return
		}
		s.mu.Lock()
		ch, ok := s.replies[frame.Ref]
		delete(s.replies, frame.Ref)
		s.mu.Unlock()
		if ok {
			ch <- reply
		}
	case EventError, EventClose:
		if frame.Topic == s.topic {
			s.logger.Warn("phoenix: channel terminated", zap.String("event", frame.Event))
		}
	default:
		s.logger.Debug("phoenix: inbound", zap.String("topic", frame.Topic), zap.String("event", frame.Event))
	}
}

func (s *Socket) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return
	}
	s.connected = false
	if s.closed {
		s.failure = channel.ErrClosed
	} else {
		s.failure = fmt.Errorf("%w: %v", channel.ErrNotConnected, err)
		s.logger.Warn("phoenix: connection lost", zap.Error(err))
	}
	close(s.done)
}

func (s *Socket) awaitReply(ref string) <-chan Reply {
	ch := make(chan Reply, 1)
	s.mu.Lock()
	s.replies[ref] = ch
	s.mu.Unlock()
	return ch
}

func (s *Socket) doneChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Socket) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	return channel.ErrNotConnected
}

func (s *Socket) currentJoinRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinRef
}

func (s *Socket) nextRef() string {
	return strconv.FormatUint(s.ref.Add(1), 10)
}
