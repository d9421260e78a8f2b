// Package identity resolves which anonymous identity governs a request.
//
// Classification is a strict fallback chain: a valid device hash wins,
// an existing session cookie comes second, the bare client IP is the
// floor. Malformed device identifiers are never an error; they simply
// degrade the request to the next tier.
package identity

import (
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/audexdev/IdeaSpark/internal/config"
	"github.com/audexdev/IdeaSpark/internal/ratelimit"
)

const (
	// HeaderXForwardedFor is the forwarded client IP header.
	HeaderXForwardedFor = "X-Forwarded-For"
	// HeaderXRealIP is the real client IP header.
	HeaderXRealIP = "X-Real-IP"

	// unknownIP is used when no peer address can be determined at all.
	unknownIP = "unknown"
)

var (
	hexDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
	uuidPattern      = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// NormalizeDeviceID lowercases and validates a device identifier.
// Accepted shapes are a 64-hex digest or a UUID. The second return is
// false for anything else, including the empty string.
func NormalizeDeviceID(id string) (string, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if hexDigestPattern.MatchString(id) || uuidPattern.MatchString(id) {
		return id, true
	}
	return "", false
}

// Classification is the outcome of classifying one request.
type Classification struct {
	Tier       ratelimit.Tier
	Identifier string
	Context    ratelimit.Context

	// IssuedCookie is non-nil when this request had no session cookie
	// and one was minted for it. The caller must attach it to the
	// response whatever the rate decision turns out to be.
	IssuedCookie *http.Cookie
}

// Classifier classifies requests into identity tiers.
type Classifier struct {
	limits ratelimit.Limits
	cookie config.CookieConfig
}

// NewClassifier creates a Classifier.
func NewClassifier(limits ratelimit.Limits, cookie config.CookieConfig) *Classifier {
	if cookie.Name == "" {
		cookie.Name = "ideaspark_id"
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 365 * 24 * time.Hour
	}
	return &Classifier{limits: limits, cookie: cookie}
}

// Classify determines the identity tier for the request, in strict
// priority order: combined device hash, session cookie, client IP.
// A session cookie is minted whenever the request carries none,
// regardless of which tier ends up governing it.
func (c *Classifier) Classify(r *http.Request, deviceID string) Classification {
	cl := Classification{}

	existing, err := r.Cookie(c.cookie.Name)
	hasCookie := err == nil && existing.Value != ""
	if !hasCookie {
		cl.IssuedCookie = c.newSessionCookie()
	}

	if id, ok := NormalizeDeviceID(deviceID); ok {
		cl.Tier = ratelimit.TierCombined
		cl.Identifier = id
	} else if hasCookie {
		cl.Tier = ratelimit.TierCookie
		cl.Identifier = existing.Value
	} else {
		cl.Tier = ratelimit.TierIP
		cl.Identifier = ClientIP(r)
	}

	cl.Context = ratelimit.NewContext(c.limits, cl.Tier, cl.Identifier)
	return cl
}

// newSessionCookie mints a one-year session cookie. The value is a
// random UUID, with a timestamp+random fallback if UUID generation
// fails.
func (c *Classifier) newSessionCookie() *http.Cookie {
	value := ""
	if u, err := uuid.NewRandom(); err == nil {
		value = u.String()
	} else {
		value = strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.Itoa(rand.Intn(1_000_000))
	}

	return &http.Cookie{
		Name:     c.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClientIP resolves the client address: first X-Forwarded-For entry,
// then X-Real-IP, then the transport peer address, then "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get(HeaderXRealIP)); xri != "" {
		return xri
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return unknownIP
}
