package conversation

import (
	"regexp"
	"strings"
)

// OutputGuardResult is the outcome of scanning a model reply before it is
// relayed to the visitor.
type OutputGuardResult struct {
	// Leaked is true if the reply contains something that must not be sent.
	Leaked bool
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Sanitized is the reply to send, or empty when it must be replaced.
	Sanitized string
}

type outputLeakPattern struct {
	re     *regexp.Regexp
	reason string
}

var outputLeakPatterns = []outputLeakPattern{
	{regexp.MustCompile(`(?i)my (system\s+)?prompt\s+(is|says|tells|instructs)`), "leak:system_prompt_disclosure"},
	{regexp.MustCompile(`(?i)my instructions?\s+(are|say|tell|include|require)`), "leak:instructions_disclosure"},
	{regexp.MustCompile(`(?i)your only job: help clients book`), "leak:prompt_echo"},
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential"},
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), "leak:google_api_key"},
	{regexp.MustCompile(`(?i)SG\.[A-Za-z0-9_\-]{16,}\.[A-Za-z0-9_\-]{16,}`), "leak:sendgrid_key"},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "leak:aws_key"},
	{regexp.MustCompile(`(?i)(redis|postgres|mysql|mongodb)://\S+`), "leak:connection_url"},
}

// ScanOutput checks a model reply for prompt or credential leaks.
func ScanOutput(reply string) OutputGuardResult {
	if strings.TrimSpace(reply) == "" {
		return OutputGuardResult{Sanitized: reply}
	}

	var reasons []string
	for _, p := range outputLeakPatterns {
		if p.re.MatchString(reply) {
			reasons = append(reasons, p.reason)
		}
	}
	if len(reasons) == 0 {
		return OutputGuardResult{Sanitized: reply}
	}
	return OutputGuardResult{Leaked: true, Reasons: reasons}
}
