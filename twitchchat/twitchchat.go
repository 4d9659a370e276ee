// Package twitchchat is the chat-side ingestion adapter. It wraps the IRC
// client, converts inbound messages and user notices into normalized events,
// and pushes them into an events.Sink.
//
// When a Streamlabs token is configured the overlay sees every sub, cheer and
// raid twice unless one source yields, so Options.ChatOnly skips registering
// the community callbacks entirely. The decision is made once at wire-up, not
// per event. Any newly handled USERNOTICE category must be added to the same
// ChatOnly guard or it will double-fire.
package twitchchat

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/chat-overlay/events"
	"github.com/onnwee/chat-overlay/telemetry"
)

// Fallback display name when a message carries no usable identity.
const anonymousName = "Anonymous"

// arcadeColors is the palette for users without a chat color. The index is a
// stable hash of the username, so a user keeps one color for the session.
var arcadeColors = []string{
	"#FF0000", // red
	"#00FF00", // green
	"#FFFF00", // yellow
	"#00FFFF", // cyan
	"#FF00FF", // magenta
	"#FF6600", // orange
	"#39FF14", // neon green
	"#FFB8FF", // pink
	"#BF00FF", // purple
	"#FFFFFF", // white
}

// ColorFor returns the display color for a user: the provided color when the
// message bundles one, otherwise a deterministic pick from the arcade palette.
func ColorFor(username, provided string) string {
	if provided != "" {
		return provided
	}
	sum := 0
	for _, c := range username {
		sum += int(c)
	}
	return arcadeColors[sum%len(arcadeColors)]
}

// Options configures the adapter.
type Options struct {
	Channel string
	// Username/OAuthToken are optional; when empty the client connects
	// anonymously (read-only).
	Username   string
	OAuthToken string
	// ChatOnly suppresses sub/cheer/raid handling (the alerts transport is
	// authoritative for those categories).
	ChatOnly bool
}

// Adapter holds one logical IRC connection to a channel.
type Adapter struct {
	client *twitch.Client
	opts   Options
	sink   *events.Sink
	self   string
}

// New builds an adapter and registers its IRC callbacks. Nothing connects
// until Run is called.
func New(opts Options, sink *events.Sink) *Adapter {
	var client *twitch.Client
	self := opts.Username
	if opts.Username != "" && opts.OAuthToken != "" {
		client = twitch.NewClient(opts.Username, opts.OAuthToken)
	} else {
		client = twitch.NewAnonymousClient()
	}

	a := &Adapter{client: client, opts: opts, sink: sink, self: self}

	client.OnPrivateMessage(a.onPrivateMessage)
	if !opts.ChatOnly {
		client.OnUserNoticeMessage(a.onUserNotice)
	}
	client.OnConnect(func() {
		slog.Info("twitch chat connected", slog.String("channel", opts.Channel), slog.Bool("chat_only", opts.ChatOnly))
	})

	return a
}

// Run joins the channel and blocks serving the connection until ctx is
// cancelled. Reconnects are handled inside the IRC client; a connect error is
// logged and the adapter simply emits nothing.
func (a *Adapter) Run(ctx context.Context) {
	if a.opts.Channel == "" {
		slog.Info("twitch chat disabled: no channel configured")
		return
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := a.client.Disconnect(); err != nil {
			slog.Debug("twitch chat disconnect", slog.Any("err", err))
		}
		close(done)
	}()

	a.client.Join(a.opts.Channel)
	if err := a.client.Connect(); err != nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	<-done
}

func (a *Adapter) onPrivateMessage(m twitch.PrivateMessage) {
	if a.self != "" && strings.EqualFold(m.User.Name, a.self) {
		return // own messages never render
	}

	// Cheer lines carry bits metadata and are surfaced as alerts, not chat.
	if m.Bits > 0 {
		if a.opts.ChatOnly {
			return
		}
		telemetry.CountCommunityEvent("bits", "twitch")
		a.sink.Cheer(events.Cheer{
			ID:       events.NewID(),
			Username: displayName(m.User),
			Amount:   m.Bits,
			Message:  m.Message,
		})
		return
	}

	var emotes []string
	for _, e := range m.Emotes {
		emotes = append(emotes, e.Name)
	}

	telemetry.CountChatMessage()
	a.sink.Message(events.ChatMessage{
		ID:        events.NewID(),
		Username:  displayName(m.User),
		Text:      m.Message,
		Color:     ColorFor(m.User.Name, m.User.Color),
		Badges:    m.User.Badges,
		Emotes:    emotes,
		Timestamp: time.Now().UTC(),
	})
}

func (a *Adapter) onUserNotice(m twitch.UserNoticeMessage) {
	switch m.MsgID {
	case "sub":
		telemetry.CountCommunityEvent("sub", "twitch")
		a.sink.Sub(events.Subscription{
			ID:       events.NewID(),
			Username: displayName(m.User),
			Months:   1,
			Message:  m.Message,
			Tier:     paramOr(m.MsgParams, "msg-param-sub-plan", "1000"),
			IsGift:   false,
		})
	case "resub":
		telemetry.CountCommunityEvent("sub", "twitch")
		a.sink.Sub(events.Subscription{
			ID:       events.NewID(),
			Username: displayName(m.User),
			Months:   paramInt(m.MsgParams, "msg-param-cumulative-months", 1),
			Message:  m.Message,
			Tier:     paramOr(m.MsgParams, "msg-param-sub-plan", "1000"),
			IsGift:   false,
		})
	case "subgift":
		recipient := m.MsgParams["msg-param-recipient-display-name"]
		if recipient == "" {
			recipient = paramOr(m.MsgParams, "msg-param-recipient-user-name", anonymousName)
		}
		telemetry.CountCommunityEvent("sub", "twitch")
		a.sink.Sub(events.Subscription{
			ID:       events.NewID(),
			Username: recipient,
			Months:   1,
			Tier:     paramOr(m.MsgParams, "msg-param-sub-plan", "1000"),
			IsGift:   true,
			Gifter:   displayName(m.User),
		})
	case "raid":
		raider := m.MsgParams["msg-param-displayName"]
		if raider == "" {
			raider = displayName(m.User)
		}
		telemetry.CountCommunityEvent("raid", "twitch")
		a.sink.Raid(events.Raid{
			ID:      events.NewID(),
			Raider:  raider,
			Viewers: paramInt(m.MsgParams, "msg-param-viewerCount", 0),
		})
	default:
		// announcements, rituals etc. are not alert-worthy
		slog.Debug("twitch chat: ignoring user notice", slog.String("msg_id", m.MsgID))
	}
}

func displayName(u twitch.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return anonymousName
}

func paramOr(params map[string]string, key, def string) string {
	if v := params[key]; v != "" {
		return v
	}
	return def
}

func paramInt(params map[string]string, key string, def int) int {
	v := params[key]
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
