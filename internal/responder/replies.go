package responder

import (
	"html"
	"strings"

	"github.com/wolfman30/consult-chat/internal/siteinfo"
)

// ReplyKey names a reply template.
type ReplyKey string

const (
	KeyGreeting         ReplyKey = "greeting"
	KeyDecline          ReplyKey = "decline"
	KeyThanks           ReplyKey = "thanks"
	KeyYouToo           ReplyKey = "you_too"
	KeyFarewell         ReplyKey = "farewell"
	KeyName             ReplyKey = "name"
	KeyOwnerNotReplying ReplyKey = "owner_not_replying"
	KeyDidntAnswer      ReplyKey = "didnt_answer"
	KeySmallTalk        ReplyKey = "small_talk"
	KeyEmailDetails     ReplyKey = "email_details"
	KeyPhoneDetails     ReplyKey = "phone_details"
	KeyAlreadyHave      ReplyKey = "already_have"
	KeyPreference       ReplyKey = "preference"
	KeyBookingPrompt    ReplyKey = "booking_prompt"
	KeyAllSet           ReplyKey = "all_set"
	KeyNoWorries        ReplyKey = "no_worries"
	KeySessionClosed    ReplyKey = "session_closed"
)

// DefaultTemplates are the stock replies. Placeholders: {website}, {email},
// {mailto}, {phone}, {tel}, {booking}.
var DefaultTemplates = map[ReplyKey]string{
	KeyGreeting:         "How may I help you?",
	KeyDecline:          "No problem at all! If you change your mind, I'm here whenever you need me.",
	KeyThanks:           "You're welcome! Is there anything else I can help you with?",
	KeyYouToo:           "Thank you! Have a wonderful day.",
	KeyFarewell:         "Goodbye! Have a great day.",
	KeyName:             "I'm the booking assistant for {website}. I can help you book a consultation.",
	KeyOwnerNotReplying: `Sorry for the wait! You can reach the owner directly at <a href="{tel}">{phone}</a> or <a href="{mailto}">{email}</a>.`,
	KeyDidntAnswer:      "Sorry about that! I can only help with booking a consultation. Would you like to book via Email or Phone?",
	KeySmallTalk:        "I'm doing great, thanks for asking! How can I help you today?",
	KeyEmailDetails:     `Great! You can email us at <a href="{mailto}">{email}</a> to book your consultation.`,
	KeyPhoneDetails:     `Great! You can call us at <a href="{tel}">{phone}</a> to book your consultation.`,
	KeyAlreadyHave:      "Perfect! Reach out whenever you're ready and we'll get you booked in.",
	KeyPreference:       "Both work! Email is best for sharing details, and phone is the fastest way to get booked. Would you like to book via Email or Phone?",
	KeyBookingPrompt:    "Would you like to book via Email or Phone?",
	KeyAllSet:           "You're all set! Reach out using the details above whenever you're ready.",
	KeyNoWorries:        "Okay! Let me know if there's anything else I can help with.",
	KeySessionClosed:    "This chat session has ended. Refresh the page to start a new conversation.",
}

// render fills every template with escaped site values.
func render(templates map[ReplyKey]string, info siteinfo.SiteInfo) map[ReplyKey]string {
	r := strings.NewReplacer(
		"{website}", html.EscapeString(info.Website),
		"{email}", html.EscapeString(info.Email),
		"{mailto}", html.EscapeString(info.MailtoURI()),
		"{phone}", html.EscapeString(info.Phone),
		"{tel}", html.EscapeString(info.TelURI()),
		"{booking}", html.EscapeString(info.Booking),
	)
	out := make(map[ReplyKey]string, len(DefaultTemplates))
	for key, tmpl := range DefaultTemplates {
		if override, ok := templates[key]; ok && strings.TrimSpace(override) != "" {
			tmpl = override
		}
		out[key] = r.Replace(tmpl)
	}
	return out
}
