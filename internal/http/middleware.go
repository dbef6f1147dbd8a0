package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"amlinks/internal/core"
	"amlinks/internal/flood"
	"amlinks/internal/i18n"
)

// requestLogger logs each request once it has been served.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// corsMiddleware applies the configured CORS policy and answers preflight requests.
func corsMiddleware(config core.CORSConfig) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]struct{}, len(config.AllowOrigins))
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = struct{}{}
	}
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, ok := allowed[origin]
				switch {
				case allowAny && !config.AllowCredentials:
					w.Header().Set("Access-Control-Allow-Origin", "*")
				case allowAny || ok:
					// Credentials cannot be combined with a wildcard origin.
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				if config.AllowCredentials && (allowAny || ok) {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// floodMiddleware rejects clients that exceed the per-minute request limit.
func floodMiddleware(floodgate *flood.Floodgate, metrics *Metrics, fallbackLanguage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			client := clientIP(r)

			if !floodgate.Allow(route, client) {
				metrics.RejectionsTotal.WithLabelValues("flood").Inc()
				writeRateLimited(w, r, floodgate.RetryAfter(route, client), metrics, fallbackLanguage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware caps the request rate across all clients.
func rateLimitMiddleware(limiter *rate.Limiter, metrics *Metrics, fallbackLanguage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.RejectionsTotal.WithLabelValues("global").Inc()
				writeRateLimited(w, r, time.Duration(float64(time.Second)/float64(limiter.Limit())), metrics, fallbackLanguage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, wait time.Duration, metrics *Metrics, fallbackLanguage string) {
	metrics.TasksTotal.WithLabelValues("rate_limited").Inc()

	retryAfter := int(math.Ceil(wait.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	localizer := i18n.NewLocalizer(requestLanguage(r, fallbackLanguage))
	writeError(w, http.StatusTooManyRequests, localizer.T("error.rate_limited"))
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
