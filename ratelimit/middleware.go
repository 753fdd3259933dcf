package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Limiter is one route class: at most Max requests per client per Window.
type Limiter struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
}

type KeyFunc func(r *http.Request) string

// LimitedFunc writes the rejection once a client is over the ceiling.
type LimitedFunc func(w http.ResponseWriter, r *http.Request, l Limiter)

type Options struct {
	Store    Store
	KeyFn    KeyFunc
	OnLimit  LimitedFunc
	Logger   zerolog.Logger
	TrustXFF bool
	Now      func() time.Time
}

// DefaultKeyFunc keys by the connection's remote host. X-Forwarded-For is only
// consulted when the deployment sits behind a trusted proxy.
func DefaultKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if trustXFF {
			// first hop is the original client
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func defaultOnLimit(w http.ResponseWriter, _ *http.Request, l Limiter) {
	http.Error(w, l.Message, http.StatusTooManyRequests)
}

// Middleware enforces l in front of next. Counter failures let the request
// through: the limiter must never take the API down with it.
func Middleware(l Limiter, opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustXFF)
	}
	if opts.OnLimit == nil {
		opts.OnLimit = defaultOnLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.With().Str("limiter", l.Name).Logger()
	denials := &rate.Sometimes{Interval: 10 * time.Second}
	policy := fmt.Sprintf("%d;w=%d", l.Max, int(l.Window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := opts.KeyFn(r)

			win, err := opts.Store.Increment(r.Context(), l.Name+":"+client, l.Window)
			if err != nil {
				logger.Error().Err(err).Str("client", client).Msg("rate limit store failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			resetIn := int(math.Ceil(win.ResetAt.Sub(opts.Now()).Seconds()))
			if resetIn < 0 {
				resetIn = 0
			}
			remaining := int64(l.Max) - win.Count
			if remaining < 0 {
				remaining = 0
			}

			h := w.Header()
			h.Set("RateLimit-Policy", policy)
			h.Set("RateLimit-Limit", strconv.Itoa(l.Max))
			h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("RateLimit-Reset", strconv.Itoa(resetIn))

			if win.Count > int64(l.Max) {
				denials.Do(func() {
					logger.Warn().Str("client", client).Int64("count", win.Count).Msg("rate limit exceeded")
				})
				h.Set("Retry-After", strconv.Itoa(resetIn))
				opts.OnLimit(w, r, l)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
