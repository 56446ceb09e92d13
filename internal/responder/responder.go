// Package responder answers recognised intents with canned replies and
// advances the visitor's session state.
package responder

import (
	"time"

	"github.com/wolfman30/consult-chat/internal/intent"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
)

// Options tune responder behaviour.
type Options struct {
	// SessionClosing makes farewell and decline end the conversation; every
	// later message gets the closed reply.
	SessionClosing bool
	// Templates overrides individual entries of DefaultTemplates.
	Templates map[ReplyKey]string
	// Now is used to stamp sessions. Defaults to time.Now.
	Now func() time.Time
}

// Reply is a rule-based answer.
type Reply struct {
	Text   string
	Intent intent.Kind
	Key    ReplyKey
}

// Responder is safe for concurrent use; it holds no per-visitor state.
type Responder struct {
	replies map[ReplyKey]string
	closing bool
	now     func() time.Time
}

// New builds a responder with replies rendered for info.
func New(info siteinfo.SiteInfo, opts Options) *Responder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Responder{
		replies: render(opts.Templates, info),
		closing: opts.SessionClosing,
		now:     now,
	}
}

// Text returns the rendered reply for key.
func (r *Responder) Text(key ReplyKey) string {
	return r.replies[key]
}

// Respond classifies message and, when a rule fires, mutates s and returns
// the reply. ok is false when no rule matched and the caller should fall
// back to the model.
func (r *Responder) Respond(message string, s *session.Session) (reply Reply, ok bool) {
	if r.closing && s.Closed {
		return Reply{Text: r.replies[KeySessionClosed], Intent: intent.None, Key: KeySessionClosed}, true
	}

	kind := intent.Classify(message)
	if kind == intent.None {
		return Reply{}, false
	}

	key := r.apply(kind, s)
	s.UpdatedAt = r.now().UTC()
	return Reply{Text: r.replies[key], Intent: kind, Key: key}, true
}

// apply performs the state transition for kind and picks the reply.
func (r *Responder) apply(kind intent.Kind, s *session.Session) ReplyKey {
	switch kind {
	case intent.Greeting:
		s.Greeted = true
		s.ResetBooking()
		return KeyGreeting
	case intent.Decline:
		s.Decline()
		if r.closing {
			s.Closed = true
		}
		return KeyDecline
	case intent.Thanks:
		return KeyThanks
	case intent.YouToo:
		return KeyYouToo
	case intent.Farewell:
		if r.closing {
			s.Closed = true
		}
		return KeyFarewell
	case intent.NameQuery:
		return KeyName
	case intent.OwnerNotReplying:
		return KeyOwnerNotReplying
	case intent.DidntAnswer:
		return KeyDidntAnswer
	case intent.SmallTalk:
		return KeySmallTalk
	case intent.EmailAddressRequest, intent.ChooseEmail:
		s.Provide(session.ChannelEmail)
		return KeyEmailDetails
	case intent.ChoosePhone:
		s.Provide(session.ChannelPhone)
		return KeyPhoneDetails
	case intent.AlreadyHave:
		return KeyAlreadyHave
	case intent.PreferenceQuestion:
		return KeyPreference
	case intent.BookingRequest:
		if s.HasProvided() {
			return KeyAllSet
		}
		s.Declined = false
		return KeyBookingPrompt
	case intent.Acknowledge:
		if s.HasProvided() {
			return KeyAllSet
		}
		if s.Declined {
			return KeyNoWorries
		}
		return KeyBookingPrompt
	case intent.Negative:
		s.Decline()
		return KeyNoWorries
	default:
		return KeyBookingPrompt
	}
}
