package twitchchat

import (
	"testing"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/chat-overlay/events"
)

type capture struct {
	messages []events.ChatMessage
	subs     []events.Subscription
	cheers   []events.Cheer
	raids    []events.Raid
}

func captureSink() (*events.Sink, *capture) {
	c := &capture{}
	sink := events.NewSink(events.Handlers{
		OnMessage: func(m events.ChatMessage) { c.messages = append(c.messages, m) },
		OnSub:     func(s events.Subscription) { c.subs = append(c.subs, s) },
		OnCheer:   func(ch events.Cheer) { c.cheers = append(c.cheers, ch) },
		OnRaid:    func(r events.Raid) { c.raids = append(c.raids, r) },
	})
	return sink, c
}

func TestColorForPrefersProvided(t *testing.T) {
	if got := ColorFor("anyone", "#123456"); got != "#123456" {
		t.Errorf("ColorFor with provided color = %q", got)
	}
}

func TestColorForDeterministic(t *testing.T) {
	a := ColorFor("retrogamer99", "")
	b := ColorFor("retrogamer99", "")
	if a != b {
		t.Errorf("same user got different colors: %q vs %q", a, b)
	}
	found := false
	for _, c := range arcadeColors {
		if c == a {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("color %q not from the palette", a)
	}
}

func TestPrivateMessageBecomesChatMessage(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onPrivateMessage(twitch.PrivateMessage{
		User:    twitch.User{Name: "pixelqueen", DisplayName: "PixelQueen", Color: "#FF69B4"},
		Message: "WOW the CRT effects are so cool!",
	})

	if len(c.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(c.messages))
	}
	m := c.messages[0]
	if m.Username != "PixelQueen" {
		t.Errorf("Username = %q", m.Username)
	}
	if m.Color != "#FF69B4" {
		t.Errorf("Color = %q, want bundled color", m.Color)
	}
	if m.ID == "" {
		t.Error("message id not minted")
	}
}

func TestSelfMessageDiscarded(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel", Username: "overlaybot", OAuthToken: "oauth:x"}, sink)

	a.onPrivateMessage(twitch.PrivateMessage{
		User:    twitch.User{Name: "OverlayBot", DisplayName: "OverlayBot"},
		Message: "own line",
	})
	if len(c.messages) != 0 {
		t.Fatalf("self message should be discarded, got %d", len(c.messages))
	}
}

func TestBitsBecomeCheer(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onPrivateMessage(twitch.PrivateMessage{
		User:    twitch.User{Name: "bitboss", DisplayName: "BitBoss"},
		Message: "cheer500 nice",
		Bits:    500,
	})

	if len(c.cheers) != 1 {
		t.Fatalf("cheers = %d, want 1", len(c.cheers))
	}
	if c.cheers[0].Amount != 500 {
		t.Errorf("Amount = %d, want 500", c.cheers[0].Amount)
	}
	if len(c.messages) != 0 {
		t.Errorf("cheer lines must not also render as chat, got %d messages", len(c.messages))
	}
}

func TestChatOnlySuppressesCheer(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel", ChatOnly: true}, sink)

	a.onPrivateMessage(twitch.PrivateMessage{
		User:    twitch.User{Name: "bitboss"},
		Message: "cheer100",
		Bits:    100,
	})
	if len(c.cheers) != 0 {
		t.Fatalf("chat-only adapter emitted %d cheer events, want 0", len(c.cheers))
	}
	if len(c.messages) != 0 {
		t.Fatalf("cheer line leaked as chat message")
	}
}

func TestFirstSubDefaults(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:      twitch.User{Name: "neonninja", DisplayName: "NeonNinja"},
		MsgID:     "sub",
		MsgParams: map[string]string{"msg-param-sub-plan": "2000"},
	})

	if len(c.subs) != 1 {
		t.Fatalf("subs = %d, want 1", len(c.subs))
	}
	s := c.subs[0]
	if s.Months != 1 || s.Tier != "2000" || s.IsGift {
		t.Errorf("unexpected sub: %+v", s)
	}
}

func TestResubCumulativeMonths(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:      twitch.User{Name: "glitchwitch", DisplayName: "GlitchWitch"},
		MsgID:     "resub",
		Message:   "twelve already!",
		MsgParams: map[string]string{"msg-param-cumulative-months": "12"},
	})

	if len(c.subs) != 1 {
		t.Fatalf("subs = %d, want 1", len(c.subs))
	}
	s := c.subs[0]
	if s.Months != 12 {
		t.Errorf("Months = %d, want 12", s.Months)
	}
	if s.Tier != "1000" {
		t.Errorf("Tier = %q, want default 1000", s.Tier)
	}
	if s.Message != "twelve already!" {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestResubMissingMonthsFallsBack(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:      twitch.User{Name: "chiptune"},
		MsgID:     "resub",
		MsgParams: map[string]string{"msg-param-cumulative-months": "garbage"},
	})
	if got := c.subs[0].Months; got != 1 {
		t.Errorf("Months = %d, want fallback 1", got)
	}
}

func TestGiftSubAttributesGifter(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:  twitch.User{Name: "generousgifter", DisplayName: "GenerousGifter"},
		MsgID: "subgift",
		MsgParams: map[string]string{
			"msg-param-recipient-display-name": "LuckyViewer",
			"msg-param-sub-plan":               "1000",
		},
	})

	s := c.subs[0]
	if !s.IsGift {
		t.Error("IsGift = false")
	}
	if s.Username != "LuckyViewer" {
		t.Errorf("Username = %q, want recipient as subject", s.Username)
	}
	if s.Gifter != "GenerousGifter" {
		t.Errorf("Gifter = %q", s.Gifter)
	}
}

func TestRaidViewerCount(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:  twitch.User{Name: "coolstreamer", DisplayName: "CoolStreamer"},
		MsgID: "raid",
		MsgParams: map[string]string{
			"msg-param-displayName": "CoolStreamer",
			"msg-param-viewerCount": "120",
		},
	})

	if len(c.raids) != 1 {
		t.Fatalf("raids = %d, want 1", len(c.raids))
	}
	r := c.raids[0]
	if r.Raider != "CoolStreamer" || r.Viewers != 120 {
		t.Errorf("unexpected raid: %+v", r)
	}
}

func TestUnknownUserNoticeIgnored(t *testing.T) {
	sink, c := captureSink()
	a := New(Options{Channel: "somechannel"}, sink)

	a.onUserNotice(twitch.UserNoticeMessage{
		User:  twitch.User{Name: "x"},
		MsgID: "announcement",
	})
	if len(c.subs)+len(c.raids)+len(c.cheers) != 0 {
		t.Error("announcement produced an event")
	}
}
