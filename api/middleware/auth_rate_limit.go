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
	"strings"
	"time"

	"github.com/stockplace/stockplace-backend/api/responses"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for one auth
// endpoint. Counters run per client IP and per normalized email so an
// attacker cannot dodge the email window by rotating addresses.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

// AuthRateLimit throttles an auth endpoint according to the policy.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		limiter := &authRateLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.admit(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type authRateLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

// admit runs both counters. It writes the response itself when the
// request is blocked or a dependency fails, and reports false.
func (l *authRateLimiter) admit(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()

	if l.policy.ipLimit > 0 {
		ip := clientIP(r)
		if ip != "" {
			key := fmt.Sprintf("rl:ip:%s:%s", l.policy.normalizedName(), ip)
			allowed, count, err := l.count(ctx, key, l.policy.ipLimit)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return false
			}
			if !allowed {
				l.block(ctx, w, "ip", map[string]any{"ip": ip, "attempts": count, "limit": l.policy.ipLimit})
				return false
			}
		}
	}

	if l.policy.emailLimit > 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
			return false
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if email := normalizeEmail(extractEmail(body)); email != "" {
			hash := hashValue(email)
			key := fmt.Sprintf("rl:email:%s:%s", l.policy.normalizedName(), hash)
			allowed, count, err := l.count(ctx, key, l.policy.emailLimit)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return false
			}
			if !allowed {
				l.block(ctx, w, "email", map[string]any{"email_hash": hash, "attempts": count, "limit": l.policy.emailLimit})
				return false
			}
		}
	}

	return true
}

func (l *authRateLimiter) count(ctx context.Context, key string, limit int) (bool, int64, error) {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		return false, 0, err
	}
	return count <= int64(limit), count, nil
}

func (l *authRateLimiter) block(ctx context.Context, w http.ResponseWriter, scope string, fields map[string]any) {
	if l.logg != nil {
		fields["scope"] = scope
		fields["policy"] = l.policy.normalizedName()
		fields["window_seconds"] = int(l.policy.window.Seconds())
		l.logg.Warn(l.logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// clientIP prefers proxy headers over the socket address so limits track
// the real caller behind the load balancer.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
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
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
