package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/onnwee/chat-overlay/overlay"
	"github.com/onnwee/chat-overlay/simulate"
	"github.com/onnwee/chat-overlay/telemetry"
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	ov  *overlay.Overlay
	gen *simulate.Generator
}

// HandleHealthz responds to liveness probe requests. The overlay has no
// downstream dependency whose failure should report unhealthy: transports
// reconnect on their own and state is in-memory.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleState returns the current overlay snapshot as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.ov.Snapshot())
}

// HandleStateStream pushes overlay snapshots over Server-Sent Events. The
// renderer holds this open for the life of the page; closing the request
// unsubscribes.
func (h *Handlers) HandleStateStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	snaps, cancel := h.ov.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Current state first so a reconnecting renderer repaints immediately.
	if !writeEvent(w, flusher, h.ov.Snapshot()) {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-snaps:
			if !open {
				return // overlay closed
			}
			if !writeEvent(w, flusher, snap) {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, snap overlay.Snapshot) bool {
	ok := true
	telemetry.TimeFunc(telemetry.SSEWriteSeconds, func() {
		if _, err := w.Write([]byte("data: ")); err != nil {
			ok = false
			return
		}
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			ok = false
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			ok = false
			return
		}
		flusher.Flush()
	})
	return ok
}

// HandleAlertComplete is the renderer's explicit completion signal for the
// active alert.
func (h *Handlers) HandleAlertComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ov.CompleteActiveAlert()
	w.WriteHeader(http.StatusNoContent)
}

// HandleTestTrigger fires one synthetic alert: POST /test/{follow|sub|bits|raid}.
// Available only when the generator is running (test mode).
func (h *Handlers) HandleTestTrigger(w http.ResponseWriter, r *http.Request) {
	if h.gen == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind := strings.TrimPrefix(r.URL.Path, "/test/")
	switch kind {
	case "follow":
		h.gen.SendFollow()
	case "sub":
		h.gen.SendSub()
	case "bits":
		h.gen.SendCheer()
	case "raid":
		h.gen.SendRaid()
	case "message":
		h.gen.SendMessage()
	default:
		http.NotFound(w, r)
		return
	}
	telemetry.LoggerWithCorr(r.Context()).Info("test trigger fired", "kind", kind)
	w.WriteHeader(http.StatusAccepted)
}
