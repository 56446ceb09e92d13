// Package identity derives the key that separates one visitor's
// conversation from another's.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Strategy selects how a request maps to an identity key.
type Strategy string

const (
	// StrategyGlobal treats every request as the same visitor.
	StrategyGlobal Strategy = "global"
	// StrategyIP keys on the client address.
	StrategyIP Strategy = "ip"
	// StrategyIPUserAgent keys on the client address plus a user-agent hash.
	StrategyIPUserAgent Strategy = "ip_ua"
	// StrategyUserAgent keys on the user-agent hash alone, so a browser
	// that changes address keeps its identity.
	StrategyUserAgent Strategy = "ua"
)

const globalKey = "global"

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyGlobal:
		return StrategyGlobal, nil
	case StrategyIP:
		return StrategyIP, nil
	case StrategyUserAgent:
		return StrategyUserAgent, nil
	case StrategyIPUserAgent, "":
		return StrategyIPUserAgent, nil
	default:
		return "", fmt.Errorf("identity: unknown strategy %q", s)
	}
}

// Resolver turns requests into identity keys.
type Resolver struct {
	strategy Strategy
}

// NewResolver creates a resolver for the given strategy.
func NewResolver(strategy Strategy) *Resolver {
	if strategy == "" {
		strategy = StrategyIPUserAgent
	}
	return &Resolver{strategy: strategy}
}

// Strategy reports the configured strategy.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Identity returns the key for req.
func (r *Resolver) Identity(req *http.Request) string {
	switch r.strategy {
	case StrategyGlobal:
		return globalKey
	case StrategyIP:
		return ClientIP(req)
	case StrategyUserAgent:
		return "ua:" + HashUserAgent(req.UserAgent())
	default:
		return ClientIP(req) + ":" + HashUserAgent(req.UserAgent())
	}
}

// ClientIP prefers the first X-Forwarded-For hop and falls back to the
// socket address.
func ClientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// HashUserAgent returns the first 16 hex characters of sha256(ua).
func HashUserAgent(ua string) string {
	sum := sha256.Sum256([]byte(ua))
	return hex.EncodeToString(sum[:])[:16]
}
