package conversation

import (
	"fmt"
	"strings"

	"github.com/wolfman30/consult-chat/internal/siteinfo"
)

// BuildSystemPrompt returns the booking-only persona with contact details
// filled in.
func BuildSystemPrompt(info siteinfo.SiteInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant for %s.\n", info.Website)
	b.WriteString("Your only job: help clients book a consultation.\n\n")
	b.WriteString("If the client asks about a consultation, ask:\n")
	b.WriteString("\"Would you like to book via Email or Phone?\"\n\n")
	fmt.Fprintf(&b, "- If Email -> reply with: %s\n", info.Email)
	fmt.Fprintf(&b, "- If Phone -> reply with: %s\n", info.Phone)
	if info.Booking != "" {
		fmt.Fprintf(&b, "- If they want to pick a time online -> reply with: %s\n", info.Booking)
	}
	b.WriteString("\nDo not answer about services, pricing, or anything else.\n")
	b.WriteString("Stay focused on consultation booking only. Keep replies short.\n")
	return b.String()
}
