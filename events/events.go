// Package events defines the normalized event model shared by both
// transports and the overlay, plus the handler registry the adapters
// dispatch into. Event ids are minted here (never trusted from a
// transport) so both sources key uniformly for rendering.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// UnknownUser is the sentinel used when a transport payload carries no
// recognizable name field.
const UnknownUser = "Someone"

// NewID mints a render-keying id for an event. Ids carry no ordering or
// cross-transport deduplication guarantee.
func NewID() string {
	return uuid.NewString()
}

// ChatMessage is a single chat line ready for display.
type ChatMessage struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Text      string         `json:"text"`
	Color     string         `json:"color"`
	Badges    map[string]int `json:"badges,omitempty"`
	Emotes    []string       `json:"emotes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CommunityEvent is a non-chat viewer action eligible for an alert.
type CommunityEvent interface {
	EventID() string
	// Kind returns the alert category: "follow", "sub", "bits" or "raid".
	Kind() string
}

// Follow is a new follower notification. Only the alerts transport
// observes follows.
type Follow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (f Follow) EventID() string { return f.ID }
func (f Follow) Kind() string    { return "follow" }

// Subscription covers first subs, resubs and gift subs. For gifts the
// recipient is the subject and the gifter is attributed separately.
type Subscription struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Months   int    `json:"months"`
	Message  string `json:"message,omitempty"`
	Tier     string `json:"tier"`
	IsGift   bool   `json:"is_gift"`
	Gifter   string `json:"gifter,omitempty"`
}

func (s Subscription) EventID() string { return s.ID }
func (s Subscription) Kind() string    { return "sub" }

// Cheer is a bits donation, possibly with an attached message.
type Cheer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Amount   int    `json:"amount"`
	Message  string `json:"message"`
}

func (c Cheer) EventID() string { return c.ID }
func (c Cheer) Kind() string    { return "bits" }

// Raid is an incoming raid or host.
type Raid struct {
	ID      string `json:"id"`
	Raider  string `json:"raider"`
	Viewers int    `json:"viewers"`
}

func (r Raid) EventID() string { return r.ID }
func (r Raid) Kind() string    { return "raid" }

// Handlers is the set of callbacks a consumer registers for normalized
// events. Nil entries are simply skipped, which is how the normalizer
// suppresses a category for a given source.
type Handlers struct {
	OnMessage func(ChatMessage)
	OnFollow  func(Follow)
	OnSub     func(Subscription)
	OnCheer   func(Cheer)
	OnRaid    func(Raid)
}

// Sink is a mutable handler registry. Adapters hold a *Sink and always
// dispatch through the current handler set, so handlers can be swapped
// without re-registering transport callbacks.
type Sink struct {
	mu sync.RWMutex
	h  Handlers
}

// NewSink returns a Sink with the given initial handlers.
func NewSink(h Handlers) *Sink {
	return &Sink{h: h}
}

// Set replaces the current handler set.
func (s *Sink) Set(h Handlers) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func (s *Sink) handlers() Handlers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h
}

// Message dispatches a chat message to the current handler, if any.
func (s *Sink) Message(m ChatMessage) {
	if h := s.handlers().OnMessage; h != nil {
		h(m)
	}
}

// Follow dispatches a follow event to the current handler, if any.
func (s *Sink) Follow(f Follow) {
	if h := s.handlers().OnFollow; h != nil {
		h(f)
	}
}

// Sub dispatches a subscription event to the current handler, if any.
func (s *Sink) Sub(sub Subscription) {
	if h := s.handlers().OnSub; h != nil {
		h(sub)
	}
}

// Cheer dispatches a cheer event to the current handler, if any.
func (s *Sink) Cheer(c Cheer) {
	if h := s.handlers().OnCheer; h != nil {
		h(c)
	}
}

// Raid dispatches a raid event to the current handler, if any.
func (s *Sink) Raid(r Raid) {
	if h := s.handlers().OnRaid; h != nil {
		h(r)
	}
}
