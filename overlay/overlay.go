// Package overlay owns the two pieces of render state: the bounded,
// time-decaying chat message list and the strictly serialized alert queue.
// All lifecycle — insertion, capacity eviction, phase transitions, timed
// removal — happens here, driven by timers the overlay itself owns and
// cancels. Nothing in this package can fail: inputs are pre-validated domain
// events and every anomaly degrades to defined eviction or queueing behavior.
//
// Both collections are mutated under one mutex, which is the single-writer
// discipline the rest of the system relies on.
package overlay

import (
	"sync"
	"time"

	"github.com/onnwee/chat-overlay/events"
	"github.com/onnwee/chat-overlay/telemetry"
)

// MessagePhase is the visible lifecycle stage of a chat message.
type MessagePhase string

const (
	MessageRevealing MessagePhase = "revealing"
	MessageSettled   MessagePhase = "settled"
	MessageExiting   MessagePhase = "exiting"
)

// AlertPhase is the lifecycle stage of the active alert.
type AlertPhase string

const (
	AlertQueued   AlertPhase = "queued"
	AlertEntering AlertPhase = "entering"
	AlertSettled  AlertPhase = "settled"
	AlertExiting  AlertPhase = "exiting"
)

const (
	// messageExitWindow is how long before removal the exit animation starts.
	messageExitWindow = 500 * time.Millisecond
	// alertEnterWindow is the fixed entering animation span.
	alertEnterWindow = 300 * time.Millisecond
	// alertExitWindow is how long before completion the exit animation starts.
	alertExitWindow = 300 * time.Millisecond
)

// Options tunes the state machine. Zero fields take the stream defaults.
type Options struct {
	MaxMessages     int
	TypingWindow    int
	MessageLifetime time.Duration
	AlertDuration   time.Duration
	RevealRate      time.Duration
	Effects         Effects
}

type message struct {
	events.ChatMessage
	phase  MessagePhase
	typing bool
	timers []*time.Timer
}

type alert struct {
	event    events.CommunityEvent
	phase    AlertPhase
	timers   []*time.Timer
	cleanups []func()
}

// Overlay is the consumer of normalized events and the sole owner of render
// state.
type Overlay struct {
	mu       sync.Mutex
	opts     Options
	messages []*message
	alerts   []*alert
	subs     map[chan Snapshot]struct{}
	closed   bool
}

// New returns an overlay ready to accept events.
func New(opts Options) *Overlay {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 50
	}
	if opts.TypingWindow < 0 {
		opts.TypingWindow = 0
	}
	if opts.MessageLifetime <= 0 {
		opts.MessageLifetime = 18 * time.Second
	}
	if opts.AlertDuration <= 0 {
		opts.AlertDuration = 8 * time.Second
	}
	if opts.RevealRate < 0 {
		opts.RevealRate = 0
	}
	if opts.Effects == nil {
		opts.Effects = NopEffects{}
	}
	return &Overlay{opts: opts, subs: make(map[chan Snapshot]struct{})}
}

// SubmitMessage appends a chat message, evicts past the capacity bound and
// recomputes the typewriter window. Timers for reveal, exit and removal start
// now.
func (o *Overlay) SubmitMessage(msg events.ChatMessage) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	m := &message{ChatMessage: msg, phase: MessageRevealing}
	o.messages = append(o.messages, m)

	if n := len(o.messages) - o.opts.MaxMessages; n > 0 {
		for _, evicted := range o.messages[:n] {
			stopTimers(evicted.timers)
			telemetry.CountEvicted()
		}
		o.messages = o.messages[n:]
	}
	o.retypeLocked()

	revealFor := time.Duration(len([]rune(msg.Text))) * o.opts.RevealRate
	lifetime := o.opts.MessageLifetime
	m.timers = []*time.Timer{
		time.AfterFunc(revealFor, func() { o.advanceMessage(m, MessageSettled) }),
		time.AfterFunc(lifetime-messageExitWindow, func() { o.advanceMessage(m, MessageExiting) }),
		time.AfterFunc(lifetime, func() { o.expire(m) }),
	}

	telemetry.SetMessageCount(len(o.messages))
	o.broadcastLocked()
	o.mu.Unlock()
}

// RemoveMessage removes a message by id. Removing an absent id is a no-op.
func (o *Overlay) RemoveMessage(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, m := range o.messages {
		if m.ID == id {
			o.dropMessageLocked(i)
			return
		}
	}
}

// expire is the removal timer target; it matches by identity so a message
// that was already evicted or removed is left alone.
func (o *Overlay) expire(m *message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, cur := range o.messages {
		if cur == m {
			o.dropMessageLocked(i)
			return
		}
	}
}

func (o *Overlay) dropMessageLocked(i int) {
	stopTimers(o.messages[i].timers)
	o.messages = append(o.messages[:i], o.messages[i+1:]...)
	o.retypeLocked()
	telemetry.SetMessageCount(len(o.messages))
	o.broadcastLocked()
}

// advanceMessage moves a message's phase forward; phases never regress, so a
// stale reveal timer cannot undo an exit already in progress.
func (o *Overlay) advanceMessage(m *message, phase MessagePhase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || messageRank(phase) <= messageRank(m.phase) {
		return
	}
	for _, cur := range o.messages {
		if cur == m {
			m.phase = phase
			o.broadcastLocked()
			return
		}
	}
}

func messageRank(p MessagePhase) int {
	switch p {
	case MessageRevealing:
		return 0
	case MessageSettled:
		return 1
	case MessageExiting:
		return 2
	}
	return -1
}

// retypeLocked recomputes the typewriter marker: it is purely positional,
// always the newest TypingWindow messages.
func (o *Overlay) retypeLocked() {
	cut := len(o.messages) - o.opts.TypingWindow
	for i, m := range o.messages {
		m.typing = i >= cut
	}
}

// SubmitAlert appends to the alert queue. A currently active alert is never
// interrupted; if the queue was empty the new alert activates immediately.
func (o *Overlay) SubmitAlert(ev events.CommunityEvent) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	al := &alert{event: ev, phase: AlertQueued}
	o.alerts = append(o.alerts, al)
	var activated *alert
	if len(o.alerts) == 1 {
		o.activateLocked(al)
		activated = al
	}
	telemetry.SetAlertQueueDepth(len(o.alerts))
	o.broadcastLocked()
	o.mu.Unlock()

	if activated != nil {
		o.fireEffects(activated)
	}
}

// CompleteActiveAlert pops the queue head and promotes the next queued alert.
// Calling it with an empty queue is a no-op.
func (o *Overlay) CompleteActiveAlert() {
	o.mu.Lock()
	if len(o.alerts) == 0 {
		o.mu.Unlock()
		return
	}
	promoted := o.completeHeadLocked()
	o.mu.Unlock()
	if promoted != nil {
		o.fireEffects(promoted)
	}
}

// completeAlert is the duration timer target; it only completes the alert it
// was armed for, so an explicit completion racing the timer cannot skip the
// successor.
func (o *Overlay) completeAlert(al *alert) {
	o.mu.Lock()
	if len(o.alerts) == 0 || o.alerts[0] != al {
		o.mu.Unlock()
		return
	}
	promoted := o.completeHeadLocked()
	o.mu.Unlock()
	if promoted != nil {
		o.fireEffects(promoted)
	}
}

func (o *Overlay) completeHeadLocked() *alert {
	head := o.alerts[0]
	stopTimers(head.timers)
	runCleanups(head.cleanups)
	o.alerts = o.alerts[1:]
	var promoted *alert
	if len(o.alerts) > 0 {
		promoted = o.alerts[0]
		o.activateLocked(promoted)
	}
	telemetry.SetAlertQueueDepth(len(o.alerts))
	o.broadcastLocked()
	return promoted
}

func (o *Overlay) activateLocked(al *alert) {
	al.phase = AlertEntering
	d := o.opts.AlertDuration
	al.timers = []*time.Timer{
		time.AfterFunc(alertEnterWindow, func() { o.advanceAlert(al, AlertSettled) }),
		time.AfterFunc(d-alertExitWindow, func() { o.advanceAlert(al, AlertExiting) }),
		time.AfterFunc(d, func() { o.completeAlert(al) }),
	}
}

func (o *Overlay) advanceAlert(al *alert, phase AlertPhase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || len(o.alerts) == 0 || o.alerts[0] != al {
		return
	}
	if alertRank(phase) <= alertRank(al.phase) {
		return
	}
	al.phase = phase
	o.broadcastLocked()
}

func alertRank(p AlertPhase) int {
	switch p {
	case AlertQueued:
		return 0
	case AlertEntering:
		return 1
	case AlertSettled:
		return 2
	case AlertExiting:
		return 3
	}
	return -1
}

// fireEffects triggers the presentation side effects for a newly activated
// alert, exactly once, outside the state lock. Cleanup handles are retired
// when the alert completes or the overlay closes.
func (o *Overlay) fireEffects(al *alert) {
	eff := o.opts.Effects
	var cleanup func()
	switch e := al.event.(type) {
	case events.Subscription:
		eff.Celebrate("sub", e.Months)
		cleanup = eff.Flash("#00f0ff", 150*time.Millisecond)
	case events.Cheer:
		eff.Celebrate("bits", e.Amount)
		cleanup = eff.Flash("#8b5cf6", 150*time.Millisecond)
	case events.Raid:
		eff.Celebrate("raid", e.Viewers)
		cleanup = eff.Flash("#00FF00", 200*time.Millisecond)
	case events.Follow:
		eff.Celebrate("follow", 1)
		cleanup = eff.Flash("#00FF00", 100*time.Millisecond)
	}
	if cleanup == nil {
		return
	}
	o.mu.Lock()
	if len(o.alerts) > 0 && o.alerts[0] == al {
		al.cleanups = append(al.cleanups, cleanup)
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	cleanup() // alert already gone, retire the handle now
}

// Close cancels every pending timer, retires outstanding effect cleanups and
// closes all subscriber channels. The overlay accepts nothing afterwards.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for _, m := range o.messages {
		stopTimers(m.timers)
	}
	for _, al := range o.alerts {
		stopTimers(al.timers)
		runCleanups(al.cleanups)
	}
	o.messages = nil
	o.alerts = nil
	for ch := range o.subs {
		close(ch)
	}
	o.subs = nil
}

func stopTimers(timers []*time.Timer) {
	for _, t := range timers {
		t.Stop()
	}
}

func runCleanups(cleanups []func()) {
	for _, fn := range cleanups {
		fn()
	}
}
