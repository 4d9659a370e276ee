package overlay

// MessageView is the render-facing projection of one chat message.
type MessageView struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Text      string         `json:"text"`
	Color     string         `json:"color"`
	Badges    map[string]int `json:"badges,omitempty"`
	Emotes    []string       `json:"emotes,omitempty"`
	Phase     MessagePhase   `json:"phase"`
	Typing    bool           `json:"typing"`
	Timestamp int64          `json:"timestamp_ms"`
}

// AlertView is the render-facing projection of the active alert.
type AlertView struct {
	Kind  string     `json:"kind"`
	Phase AlertPhase `json:"phase"`
	Event any        `json:"event"`
}

// Snapshot is a point-in-time copy of the overlay state. Subscribers receive
// one on every mutation; the renderer draws whatever the latest one says.
type Snapshot struct {
	Messages     []MessageView `json:"messages"`
	Alert        *AlertView    `json:"alert,omitempty"`
	QueuedAlerts int           `json:"queued_alerts"`
}

// Snapshot returns the current state.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Overlay) snapshotLocked() Snapshot {
	snap := Snapshot{Messages: make([]MessageView, 0, len(o.messages))}
	for _, m := range o.messages {
		snap.Messages = append(snap.Messages, MessageView{
			ID:        m.ID,
			Username:  m.Username,
			Text:      m.Text,
			Color:     m.Color,
			Badges:    m.Badges,
			Emotes:    m.Emotes,
			Phase:     m.phase,
			Typing:    m.typing,
			Timestamp: m.Timestamp.UnixMilli(),
		})
	}
	if len(o.alerts) > 0 {
		head := o.alerts[0]
		snap.Alert = &AlertView{Kind: head.event.Kind(), Phase: head.phase, Event: head.event}
		snap.QueuedAlerts = len(o.alerts) - 1
	}
	return snap
}

// Subscribe registers a state listener. The returned cancel func must be
// called on teardown. Slow subscribers miss intermediate snapshots rather
// than blocking mutations.
func (o *Overlay) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if _, ok := o.subs[ch]; ok {
			delete(o.subs, ch)
			close(ch)
		}
	}
}

func (o *Overlay) broadcastLocked() {
	if len(o.subs) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for ch := range o.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
