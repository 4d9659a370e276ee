package events

import "testing"

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned empty string")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestKinds(t *testing.T) {
	cases := []struct {
		ev   CommunityEvent
		kind string
	}{
		{Follow{ID: "a"}, "follow"},
		{Subscription{ID: "b"}, "sub"},
		{Cheer{ID: "c"}, "bits"},
		{Raid{ID: "d"}, "raid"},
	}
	for _, c := range cases {
		if c.ev.Kind() != c.kind {
			t.Errorf("Kind() = %q, want %q", c.ev.Kind(), c.kind)
		}
		if c.ev.EventID() == "" {
			t.Errorf("%s: EventID empty", c.kind)
		}
	}
}

func TestSinkNilHandlersAreSkipped(t *testing.T) {
	s := NewSink(Handlers{})
	// None of these may panic.
	s.Message(ChatMessage{ID: NewID()})
	s.Follow(Follow{ID: NewID()})
	s.Sub(Subscription{ID: NewID()})
	s.Cheer(Cheer{ID: NewID()})
	s.Raid(Raid{ID: NewID()})
}

func TestSinkDispatchAndSwap(t *testing.T) {
	var got []string
	s := NewSink(Handlers{
		OnMessage: func(ChatMessage) { got = append(got, "msg") },
		OnCheer:   func(Cheer) { got = append(got, "cheer") },
	})
	s.Message(ChatMessage{})
	s.Cheer(Cheer{})
	s.Raid(Raid{}) // no handler, skipped

	// Swapping handlers takes effect for subsequent dispatches.
	s.Set(Handlers{OnRaid: func(Raid) { got = append(got, "raid") }})
	s.Message(ChatMessage{}) // old handler gone
	s.Raid(Raid{})

	want := []string{"msg", "cheer", "raid"}
	if len(got) != len(want) {
		t.Fatalf("dispatches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatches = %v, want %v", got, want)
		}
	}
}
