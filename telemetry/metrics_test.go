package telemetry

import (
	"context"
	"testing"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register (promauto panics on duplicates)

	if ChatMessages == nil || CommunityEvents == nil {
		t.Fatal("counters not initialized")
	}
	if MessageCountGauge == nil || AlertQueueDepth == nil {
		t.Fatal("gauges not initialized")
	}
	if SSEWriteSeconds == nil {
		t.Fatal("histogram not initialized")
	}
}

func TestTimeFunc(t *testing.T) {
	ran := false
	if d := TimeFunc(nil, func() { ran = true }); !ran || d < 0 {
		t.Errorf("TimeFunc with nil observer: ran=%v d=%v", ran, d)
	}

	Init()
	ran = false
	TimeFunc(SSEWriteSeconds, func() { ran = true })
	if !ran {
		t.Error("TimeFunc did not run fn with a live observer")
	}
}

func TestGuardedHelpersBeforeAndAfterInit(t *testing.T) {
	// All helpers must be safe regardless of Init ordering.
	Init()
	CountChatMessage()
	CountCommunityEvent("sub", "twitch")
	CountFrameDropped()
	CountPong()
	CountReconnect()
	CountEvicted()
	SetMessageCount(3)
	SetAlertQueueDepth(1)
	SetStreamlabsConnected(true)
	SetStreamlabsConnected(false)
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("empty context correlation = %q", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("correlation = %q, want abc-123", got)
	}
	if l := LoggerWithCorr(ctx); l == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
