package streamlabs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// envelope is the second element of a socket.io "42" event frame:
// ["event", {type, message, for?}]. message may be a single object or an
// array of objects; payloadItems flattens both forms.
type envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
	For     string          `json:"for"`
}

// decodeEventFrame parses a frame already known to start with "42". It
// returns (nil, nil) for well-formed frames that are not event dispatches
// (e.g. acks), and an error for malformed JSON.
func decodeEventFrame(frame string) (*envelope, error) {
	payload := strings.TrimPrefix(frame, "42")
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &arr); err != nil {
		return nil, fmt.Errorf("event frame: %w", err)
	}
	if len(arr) < 2 {
		return nil, nil
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil || tag != "event" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(arr[1], &env); err != nil {
		return nil, fmt.Errorf("event envelope: %w", err)
	}
	return &env, nil
}

// payloadItems normalizes the envelope message into a slice of objects.
// Entries that are not objects are dropped.
func payloadItems(raw json.RawMessage) []map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var one map[string]any
	if err := json.Unmarshal(raw, &one); err == nil {
		return []map[string]any{one}
	}
	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	items := make([]map[string]any, 0, len(many))
	for _, m := range many {
		var item map[string]any
		if err := json.Unmarshal(m, &item); err == nil {
			items = append(items, item)
		}
	}
	return items
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// firstInt returns the first value among keys coercible to a non-negative
// int, accepting JSON numbers and numeric strings.
func firstInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n >= 0 {
				return int(n), true
			}
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && parsed >= 0 {
				return parsed, true
			}
		}
	}
	return 0, false
}

func stringOr(m map[string]any, def string, keys ...string) string {
	if v, ok := firstString(m, keys...); ok {
		return v
	}
	return def
}

func intOr(m map[string]any, def int, keys ...string) int {
	if v, ok := firstInt(m, keys...); ok {
		return v
	}
	return def
}
