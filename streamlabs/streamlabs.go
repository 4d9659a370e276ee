// Package streamlabs is the alerts-side ingestion adapter. It speaks just
// enough of the socket.io text framing to consume the Streamlabs socket API:
// a lone "2" is a keep-alive ping answered with "3", and frames prefixed "42"
// carry ["event", envelope] dispatches. Everything else is ignored.
//
// The upstream payload shapes are inconsistent across event types and over
// time, so field extraction is alias-and-precedence based (see parse.go) and
// never fails: missing names become events.UnknownUser and missing numbers
// become zero. Malformed frames are logged and dropped without closing the
// socket. On close the adapter schedules exactly one reconnect after a fixed
// delay and repeats indefinitely; teardown via ctx cancels a pending attempt.
package streamlabs

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/chat-overlay/events"
	"github.com/onnwee/chat-overlay/telemetry"
)

// DefaultSocketURL is the production Streamlabs socket endpoint. The token
// and socket.io parameters are appended by the adapter.
const DefaultSocketURL = "wss://sockets.streamlabs.com/socket.io/"

const defaultReconnectDelay = 5 * time.Second

// Options configures the adapter.
type Options struct {
	// Token authenticates the socket. Empty leaves the adapter inert.
	Token string
	// SocketURL overrides the endpoint, mainly for tests.
	SocketURL string
	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay time.Duration
}

// Adapter holds one Streamlabs socket and its reconnect loop.
type Adapter struct {
	opts   Options
	sink   *events.Sink
	dialer *websocket.Dialer
}

// New builds an adapter. Nothing connects until Run is called.
func New(opts Options, sink *events.Sink) *Adapter {
	if opts.SocketURL == "" {
		opts.SocketURL = DefaultSocketURL
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &Adapter{
		opts:   opts,
		sink:   sink,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run connects and serves the socket until ctx is cancelled. Without a token
// it returns immediately (the transport is opt-in). Each session end, for any
// reason, schedules one reconnect after the fixed delay — no backoff growth,
// no retry cap.
func (a *Adapter) Run(ctx context.Context) {
	if a.opts.Token == "" {
		slog.Info("streamlabs disabled: no socket token")
		return
	}
	for {
		err := a.session(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("streamlabs socket closed; reconnecting",
			slog.Duration("delay", a.opts.ReconnectDelay), slog.Any("err", err))
		telemetry.CountReconnect()
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.opts.ReconnectDelay):
		}
	}
}

func (a *Adapter) session(ctx context.Context) error {
	dialCtx, span := telemetry.StartSpan(ctx, "streamlabs", "dial")
	conn, _, err := a.dialer.DialContext(dialCtx, a.socketURL(), nil)
	telemetry.RecordError(span, err)
	span.End()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("streamlabs close", slog.Any("err", err))
		}
	}()

	telemetry.SetStreamlabsConnected(true)
	defer telemetry.SetStreamlabsConnected(false)
	slog.Info("streamlabs connected")

	// Unblock ReadMessage when the overlay tears down.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		a.handleFrame(conn, string(data))
	}
}

func (a *Adapter) socketURL() string {
	return a.opts.SocketURL + "?token=" + url.QueryEscape(a.opts.Token) + "&EIO=3&transport=websocket"
}

// frameWriter is the slice of *websocket.Conn the frame handler needs.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// handleFrame processes one inbound text frame. Pings are answered on the
// spot with no other side effect; event frames are decoded and dispatched;
// anything malformed is counted and dropped.
func (a *Adapter) handleFrame(w frameWriter, frame string) {
	if frame == "2" {
		if err := w.WriteMessage(websocket.TextMessage, []byte("3")); err != nil {
			slog.Warn("streamlabs pong failed", slog.Any("err", err))
			return
		}
		telemetry.CountPong()
		return
	}
	if len(frame) < 2 || frame[:2] != "42" {
		return // handshake, acks, upgrades: nothing to do
	}
	env, err := decodeEventFrame(frame)
	if err != nil {
		telemetry.CountFrameDropped()
		slog.Warn("streamlabs malformed frame", slog.Any("err", err))
		return
	}
	if env == nil {
		return
	}
	a.dispatch(env)
}

// dispatch normalizes an event envelope into domain events. Unrecognized
// types are forward-compatible: logged, counted, dropped.
func (a *Adapter) dispatch(env *envelope) {
	items := payloadItems(env.Message)
	if len(items) == 0 {
		telemetry.CountFrameDropped()
		slog.Warn("streamlabs envelope without payload", slog.String("type", env.Type))
		return
	}
	for _, item := range items {
		if len(item) == 0 {
			continue // nothing recognizable, skip rather than alert on garbage
		}
		username := stringOr(item, events.UnknownUser, "name", "display_name", "from")
		switch env.Type {
		case "follow":
			telemetry.CountCommunityEvent("follow", "streamlabs")
			a.sink.Follow(events.Follow{ID: events.NewID(), Username: username})
		case "subscription", "resub":
			gifter, hasGifter := firstString(item, "gifter", "gifter_display_name")
			months := 1
			if v, ok := firstInt(item, "months"); ok && v > 0 {
				months = v
			}
			telemetry.CountCommunityEvent("sub", "streamlabs")
			a.sink.Sub(events.Subscription{
				ID:       events.NewID(),
				Username: username,
				Months:   months,
				Message:  stringOr(item, "", "message"),
				Tier:     stringOr(item, "1000", "sub_plan"),
				IsGift:   hasGifter,
				Gifter:   gifter,
			})
		case "bits", "cheer":
			telemetry.CountCommunityEvent("bits", "streamlabs")
			a.sink.Cheer(events.Cheer{
				ID:       events.NewID(),
				Username: username,
				Amount:   intOr(item, 0, "amount"),
				Message:  stringOr(item, "", "message"),
			})
		case "raid", "host":
			telemetry.CountCommunityEvent("raid", "streamlabs")
			a.sink.Raid(events.Raid{
				ID:      events.NewID(),
				Raider:  username,
				Viewers: intOr(item, 0, "raiders", "viewers"),
			})
		case "donation":
			// Recognized on purpose, alerted on never: tips are handled by a
			// separate Streamlabs widget.
			slog.Debug("streamlabs donation observed, no alert", slog.String("from", username))
		default:
			telemetry.CountFrameDropped()
			slog.Warn("streamlabs unrecognized event type", slog.String("type", env.Type))
		}
	}
}
