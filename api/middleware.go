package api

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// openPaths are reachable without an API key.
var openPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// loggingMiddleware logs each request with its duration.
func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debugw("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", clientIP(r),
			"duration", time.Since(start))
	})
}

// rateLimitMiddleware provides token-bucket rate limiting per client IP.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		a.rateLimitersMu.Lock()
		entry, exists := a.rateLimiters[ip]
		if !exists {
			entry = &rateLimiterEntry{
				limiter: rate.NewLimiter(
					rate.Limit(a.config.API.RateLimit.RequestsPerSecond),
					a.config.API.RateLimit.Burst),
				lastSeen: time.Now(),
			}
			a.rateLimiters[ip] = entry
		} else {
			entry.lastSeen = time.Now()
		}
		// Capture limiter reference while holding the lock so the cleanup
		// goroutine cannot race the Allow call.
		limiter := entry.limiter
		a.rateLimitersMu.Unlock()

		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// apiKeyMiddleware checks X-API-Key against the configured bcrypt hash,
// blocking clients after repeated failures. Health and metrics stay open.
func (a *API) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if openPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		a.authFailuresMu.Lock()
		entry, exists := a.authFailures[ip]
		if exists && entry.count >= 5 && time.Since(entry.lastFail) < 10*time.Minute {
			a.authFailuresMu.Unlock()
			a.logger.Errorf("Too many failed auth attempts from IP: %s", ip)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		a.authFailuresMu.Unlock()

		key := r.Header.Get("X-API-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(a.config.API.AdminAPIKeyHash), []byte(key)) != nil {
			a.authFailuresMu.Lock()
			if !exists {
				a.authFailures[ip] = &authFailureEntry{count: 1, lastFail: time.Now()}
			} else {
				entry.count++
				entry.lastFail = time.Now()
			}
			a.authFailuresMu.Unlock()

			a.logger.Errorf("Failed authentication attempt from IP: %s", ip)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		a.authFailuresMu.Lock()
		delete(a.authFailures, ip)
		a.authFailuresMu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// cleanupRateLimiters periodically drops inactive limiter and failure
// entries so the maps do not grow without bound.
func (a *API) cleanupRateLimiters() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.rateLimitersMu.Lock()
			for ip, entry := range a.rateLimiters {
				if time.Since(entry.lastSeen) > 1*time.Hour {
					delete(a.rateLimiters, ip)
				}
			}
			a.rateLimitersMu.Unlock()

			a.authFailuresMu.Lock()
			for ip, entry := range a.authFailures {
				if time.Since(entry.lastFail) > 1*time.Hour {
					delete(a.authFailures, ip)
				}
			}
			a.authFailuresMu.Unlock()
		case <-a.stopCh:
			return
		}
	}
}

// clientIP extracts the remote IP without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
