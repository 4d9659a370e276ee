package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/chat-overlay/events"
	"github.com/onnwee/chat-overlay/overlay"
	"github.com/onnwee/chat-overlay/simulate"
)

func newTestServer(t *testing.T, gen *simulate.Generator) (*httptest.Server, *overlay.Overlay) {
	t.Helper()
	ov := overlay.New(overlay.Options{
		MaxMessages:     10,
		TypingWindow:    3,
		MessageLifetime: time.Hour,
		AlertDuration:   time.Hour,
	})
	t.Cleanup(ov.Close)
	srv := httptest.NewServer(NewMux(ov, gen))
	t.Cleanup(srv.Close)
	return srv, ov
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if corr := resp.Header.Get("X-Correlation-ID"); corr == "" {
		t.Error("missing correlation id header")
	}
}

func TestStateSnapshot(t *testing.T) {
	srv, ov := newTestServer(t, nil)
	ov.SubmitMessage(events.ChatMessage{ID: "m1", Username: "A", Text: "hi", Timestamp: time.Now()})
	ov.SubmitAlert(events.Cheer{ID: "c1", Username: "B", Amount: 500})

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()

	var snap overlay.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].ID != "m1" {
		t.Errorf("messages = %+v", snap.Messages)
	}
	if snap.Alert == nil || snap.Alert.Kind != "bits" {
		t.Errorf("alert = %+v", snap.Alert)
	}
}

func TestStateMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Post(srv.URL+"/state", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestAlertComplete(t *testing.T) {
	srv, ov := newTestServer(t, nil)
	ov.SubmitAlert(events.Follow{ID: "f1", Username: "A"})
	ov.SubmitAlert(events.Follow{ID: "f2", Username: "B"})

	resp, err := http.Post(srv.URL+"/alerts/complete", "", nil)
	if err != nil {
		t.Fatalf("POST /alerts/complete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	snap := ov.Snapshot()
	if snap.Alert == nil || snap.Alert.Event.(events.Follow).ID != "f2" {
		t.Errorf("completion did not promote: %+v", snap.Alert)
	}
}

func TestTestTriggersRequireGenerator(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Post(srv.URL+"/test/sub", "", nil)
	if err != nil {
		t.Fatalf("POST /test/sub: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without generator", resp.StatusCode)
	}
}

func TestTestTriggerFiresAlert(t *testing.T) {
	var got []string
	sink := events.NewSink(events.Handlers{
		OnRaid: func(events.Raid) { got = append(got, "raid") },
	})
	gen := simulate.NewWithSeed(sink, 5)
	srv, _ := newTestServer(t, gen)

	resp, err := http.Post(srv.URL+"/test/raid", "", nil)
	if err != nil {
		t.Fatalf("POST /test/raid: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
	if len(got) != 1 {
		t.Errorf("raid dispatches = %d, want 1", len(got))
	}

	resp, err = http.Post(srv.URL+"/test/unknown", "", nil)
	if err != nil {
		t.Fatalf("POST /test/unknown: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown trigger status = %d, want 404", resp.StatusCode)
	}
}

func TestStateStreamDeliversSnapshots(t *testing.T) {
	srv, ov := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/state/stream")
	if err != nil {
		t.Fatalf("GET /state/stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() overlay.Snapshot {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if strings.HasPrefix(line, "data: ") {
				var snap overlay.Snapshot
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
					t.Fatalf("decode event: %v", err)
				}
				return snap
			}
		}
	}

	// initial snapshot is empty
	if snap := readEvent(); len(snap.Messages) != 0 {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	ov.SubmitMessage(events.ChatMessage{ID: "m1", Username: "A", Text: "hi", Timestamp: time.Now()})
	if snap := readEvent(); len(snap.Messages) != 1 || snap.Messages[0].ID != "m1" {
		t.Fatalf("streamed snapshot = %+v", snap)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want permissive default", got)
	}
}
