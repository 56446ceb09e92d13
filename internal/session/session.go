// Package session keeps the per-visitor conversation flags the rule
// responder reads and mutates.
package session

import (
	"context"
	"time"
)

// Channel is a booking contact channel.
type Channel string

const (
	ChannelNone  Channel = ""
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Session is the whole of a visitor's conversation memory.
type Session struct {
	Greeted       bool      `json:"greeted"`
	BookingMethod Channel   `json:"booking_method,omitempty"`
	Declined      bool      `json:"declined"`
	LastProvided  Channel   `json:"last_provided,omitempty"`
	Closed        bool      `json:"closed,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New returns a session in the initial state.
func New() *Session {
	return &Session{}
}

// ResetBooking returns the booking flags to their initial values. Greeted
// is left alone.
func (s *Session) ResetBooking() {
	s.BookingMethod = ChannelNone
	s.Declined = false
	s.LastProvided = ChannelNone
}

// Provide records that contact details for ch were handed out.
func (s *Session) Provide(ch Channel) {
	s.BookingMethod = ch
	s.LastProvided = ch
	s.Declined = false
}

// Decline marks the visitor as not wanting to book right now.
func (s *Session) Decline() {
	s.Declined = true
	s.BookingMethod = ChannelNone
}

// HasProvided reports whether any channel has been handed out.
func (s *Session) HasProvided() bool {
	return s.LastProvided != ChannelNone
}

// Clone returns a copy safe to mutate independently.
func (s *Session) Clone() *Session {
	if s == nil {
		return New()
	}
	c := *s
	return &c
}

// Store persists sessions keyed by visitor identity.
type Store interface {
	// Load returns the stored session, or a fresh one for unknown identities.
	Load(ctx context.Context, identity string) (*Session, error)
	Save(ctx context.Context, identity string, s *Session) error
	// Reset drops every session.
	Reset(ctx context.Context) error
}
