package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mayakapoor/aurelia-backend/api/responses"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy is the throttle for one auth surface (login, register).
// A zero window or all-zero limits disables the middleware entirely.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// AuthRateLimit counts attempts per client IP and per (hashed) email within
// the policy window. The email is read from the JSON body so that a botnet
// rotating IPs against one account still trips the second counter. Raw email
// addresses never reach Redis keys or logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		lim := &authLimiter{policy: policy, store: store, logg: logg}
		return http.HandlerFunc(lim.handle(next))
	}
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

func (l *authLimiter) handle(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if l.policy.ipLimit > 0 {
			ip := clientIP(r)
			key := fmt.Sprintf("authrl:%s:ip:%s", l.policy.name, ip)
			if !l.checkScope(ctx, w, key, "ip", ip, l.policy.ipLimit) {
				return
			}
		}

		if l.policy.emailLimit > 0 {
			email, ok := l.peekEmail(ctx, w, r)
			if !ok {
				return
			}
			if email != "" {
				hash := sha256Hex(email)
				key := fmt.Sprintf("authrl:%s:email:%s", l.policy.name, hash)
				if !l.checkScope(ctx, w, key, "email", hash, l.policy.emailLimit) {
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	}
}

// peekEmail reads the body to extract the email field and restores it for the
// downstream handler. A body that is not valid JSON is left to the handler to
// reject; the limiter only skips the email counter.
func (l *authLimiter) peekEmail(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, l.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
		return "", false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", true
	}
	return strings.ToLower(strings.TrimSpace(payload.Email)), true
}

func (l *authLimiter) checkScope(ctx context.Context, w http.ResponseWriter, key, scope, subject string, limit int) bool {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, l.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"policy":         l.policy.name,
			"scope":          scope,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
		})
		l.logg.Warn(logCtx, "auth attempt rate limited")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(l.policy.window.Seconds())))
	responses.WriteError(ctx, l.logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return false
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
