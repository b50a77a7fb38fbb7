package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SubjectRateLimiter keeps one token bucket per authenticated subject, falling back to the
// remote address for anonymous requests.
type SubjectRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSubjectRateLimiter allows perMinute requests per caller. perMinute <= 0 disables limiting.
func NewSubjectRateLimiter(perMinute int) *SubjectRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &SubjectRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: map[string]*rate.Limiter{},
	}
}

func (l *SubjectRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Middleware answers 429 RATE_LIMITED once the caller's bucket is empty. A nil limiter
// passes everything through.
func (l *SubjectRateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := SubjectFromContext(r.Context())
		if !ok {
			key = "addr:" + r.RemoteAddr
		}
		res := l.limiter(key).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests; try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
