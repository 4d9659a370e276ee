// Package simulate produces the same normalized event shapes as the live
// transports, on a timer for chat and on demand for alerts. It exists so the
// overlay can be developed and demoed without a live channel; it must never
// run alongside the live adapters for the same event categories.
package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/onnwee/chat-overlay/events"
)

var sampleChatter = []events.ChatMessage{
	{Username: "RetroGamer99", Text: "This overlay is AMAZING! 🎮"},
	{Username: "PixelQueen", Text: "WOW the CRT effects are so cool!"},
	{Username: "ArcadeMaster", Text: "Gives me nostalgia vibes"},
	{Username: "NeonNinja", Text: "The typewriter effect is sick!"},
	{Username: "BitBoss", Text: "HABBI3 LETS GOOO"},
	{Username: "GlitchWitch", Text: "Love the scanlines!"},
	{Username: "CyberPunk2077", Text: "This is giving me arcade feels"},
	{Username: "VaporWaveKid", Text: "aesthetic af"},
	{Username: "TwitchFan42", Text: "Best chat overlay I have ever seen"},
	{Username: "StreamSniper", Text: "How did you make this?!"},
	{Username: "LoFiBeats", Text: "The colors are perfect"},
	{Username: "ChipTune", Text: "Needs more 8-bit music lol"},
}

var sampleColors = []string{
	"#FF0000", "#00FF00", "#FFFF00", "#00FFFF",
	"#FF00FF", "#FF6600", "#39FF14", "#FFB8FF",
}

var sampleFollowers = []string{"NewViewer123", "ArcadeFan", "RetroLover", "PixelHero", "NeonDreamer"}

var sampleBits = []int{100, 500, 1000, 5000, 10000}

// Generator feeds randomized events into a sink. The rng is guarded because
// the ticker loop and the HTTP trigger handlers draw from it concurrently.
type Generator struct {
	sink *events.Sink

	mu  sync.Mutex
	rng *rand.Rand
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) duration(max time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(g.rng.Int63n(int64(max)))
}

// New returns a generator. A nil-safe rng seed comes from the clock; tests
// can pass a fixed seed via NewWithSeed.
func New(sink *events.Sink) *Generator {
	return NewWithSeed(sink, time.Now().UnixNano())
}

// NewWithSeed returns a generator with a deterministic random stream.
func NewWithSeed(sink *events.Sink, seed int64) *Generator {
	return &Generator{sink: sink, rng: rand.New(rand.NewSource(seed))}
}

// Run emits one chat message shortly after start and then every 2–4 seconds
// (re-randomized each round) until ctx is cancelled. Alerts only fire via the
// explicit Send* triggers.
func (g *Generator) Run(ctx context.Context) {
	slog.Info("test mode: synthetic chat generator running")
	timer := time.NewTimer(500 * time.Millisecond)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			g.SendMessage()
			timer.Reset(2*time.Second + g.duration(2*time.Second))
		}
	}
}

// SendMessage emits one randomized chat message.
func (g *Generator) SendMessage() {
	sample := sampleChatter[g.intn(len(sampleChatter))]
	g.sink.Message(events.ChatMessage{
		ID:        events.NewID(),
		Username:  sample.Username,
		Text:      sample.Text,
		Color:     sampleColors[g.intn(len(sampleColors))],
		Timestamp: time.Now().UTC(),
	})
}

// SendFollow emits one randomized follow alert.
func (g *Generator) SendFollow() {
	g.sink.Follow(events.Follow{
		ID:       events.NewID(),
		Username: sampleFollowers[g.intn(len(sampleFollowers))],
	})
}

// SendSub emits one randomized subscription alert (1–24 months, gift half
// the time).
func (g *Generator) SendSub() {
	isGift := g.intn(2) == 0
	sub := events.Subscription{
		ID:       events.NewID(),
		Username: "TestSubscriber",
		Months:   g.intn(24) + 1,
		Message:  "Testing the sub alert!",
		Tier:     "1000",
		IsGift:   isGift,
	}
	if isGift {
		sub.Gifter = "GenerousGifter"
	}
	g.sink.Sub(sub)
}

// SendCheer emits one randomized bits alert.
func (g *Generator) SendCheer() {
	bits := sampleBits[g.intn(len(sampleBits))]
	g.sink.Cheer(events.Cheer{
		ID:       events.NewID(),
		Username: "BitsDonator",
		Amount:   bits,
		Message:  fmt.Sprintf("Here are %d bits for you!", bits),
	})
}

// SendRaid emits one randomized raid alert (50–549 viewers).
func (g *Generator) SendRaid() {
	g.sink.Raid(events.Raid{
		ID:      events.NewID(),
		Raider:  "CoolStreamer",
		Viewers: g.intn(500) + 50,
	})
}
