package conversation

import (
	"regexp"
	"strings"
)

// PromptGuardResult is the outcome of scanning a visitor message before it
// reaches the model.
type PromptGuardResult struct {
	// Blocked is true if the message should NOT be sent to the model.
	Blocked bool
	// Score is a rough risk score (0.0 = safe, 1.0 = definitely injection).
	Score float64
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Sanitized is the message to send when not blocked.
	Sanitized string
}

type promptGuardPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

const (
	blockThreshold = 0.7
	warnThreshold  = 0.3
)

var promptGuardPatterns = []promptGuardPattern{
	// Attempts to override the booking-only instructions.
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?|directives?)`), "injection:override_instructions", 0.9},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "injection:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)new\s+(role|instructions?)\s*:|system\s*prompt\s*:|<<\s*sys(tem)?\s*>>`), "injection:new_role", 0.9},
	{regexp.MustCompile(`(?i)(pretend|imagine|assume)\s+(that\s+)?(you\s+)?(are|have|don'?t\s+have)\s+(no\s+)?(rules?|restrictions?|limits?|filters?)`), "injection:pretend_no_rules", 0.9},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode|unrestricted\s*mode`), "injection:jailbreak_keyword", 0.9},

	// Attempts to pull out the prompt or secrets.
	{regexp.MustCompile(`(?i)(reveal|show|print|repeat|tell\s+me|what\s+(is|are))\s+(your\s+)?(system\s+prompt|instructions?|initial\s+prompt|hidden\s+prompt|system\s+message)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)\b(api|secret|gemini|sendgrid|aws|redis)\s*(key|token|secret|password|credential)s?\b`), "exfiltration:credentials", 0.8},
	{regexp.MustCompile(`(?i)repeat\s+(everything|all|the\s+text)\s+(above|before|from\s+the\s+(start|beginning))`), "exfiltration:repeat_above", 0.7},

	// Markup that only makes sense as an injection vector.
	{regexp.MustCompile(`!\[.*\]\(https?://`), "obfuscation:markdown_image", 0.4},
	{regexp.MustCompile(`(?i)<\s*(script|img|iframe|object|embed|svg|form)\b`), "obfuscation:html_injection", 0.6},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>|###\s*(system|instruction|assistant)\s*:`), "context:special_tokens", 0.9},
}

var (
	stripTokens   = regexp.MustCompile(`(?i)\[/?INST\]|\[/?SYS\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>|<\|user\|>|<\|assistant\|>|###\s*(system|instruction|human|assistant|user)\s*:`)
	stripHTML     = regexp.MustCompile(`(?i)<\s*(script|img|iframe|object|embed|svg|form)\b[^>]*>`)
	stripMarkdown = regexp.MustCompile(`!\[.*?\]\(https?://[^)]+\)`)
)

// ScanForPromptInjection scores message. Several weak signals compound,
// adding 0.1 per extra signal to the strongest one.
func ScanForPromptInjection(message string) PromptGuardResult {
	if strings.TrimSpace(message) == "" {
		return PromptGuardResult{Sanitized: message}
	}

	var reasons []string
	maxWeight := 0.0
	for _, p := range promptGuardPatterns {
		if p.re.MatchString(message) {
			reasons = append(reasons, p.reason)
			if p.weight > maxWeight {
				maxWeight = p.weight
			}
		}
	}

	score := maxWeight
	if len(reasons) > 1 {
		score = min(1.0, maxWeight+float64(len(reasons)-1)*0.1)
	}

	result := PromptGuardResult{Score: score, Reasons: reasons, Sanitized: message}
	switch {
	case score >= blockThreshold:
		result.Blocked = true
		result.Sanitized = ""
	case score >= warnThreshold:
		result.Sanitized = SanitizeForLLM(message)
	}
	return result
}

// SanitizeForLLM strips injection markers while keeping the visitor's words.
func SanitizeForLLM(message string) string {
	cleaned := stripTokens.ReplaceAllString(message, "")
	cleaned = stripHTML.ReplaceAllString(cleaned, "")
	cleaned = stripMarkdown.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
