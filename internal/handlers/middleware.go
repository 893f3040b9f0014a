package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"chunkreading/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const StudentContextKey ContextKey = "student"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	limiter  *security.RateLimiter
	debug    bool
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(verifier *security.TokenVerifier, limiter *security.RateLimiter, debug bool) *Middleware {
	return &Middleware{
		verifier: verifier,
		limiter:  limiter,
		debug:    debug,
	}
}

// RequireStudent is middleware that requires a valid bearer token and puts
// the learner ID on the request context
func (m *Middleware) RequireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := security.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		studentID, err := m.verifier.Verify(token)
		if err != nil {
			if m.debug {
				log.Printf("[DEBUG] Rejected bearer token: %v", err)
			}
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), StudentContextKey, studentID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per learner, or per client IP before
// authentication
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetStudentID(r.Context())
		if key == "" {
			key = security.GetClientIP(r)
		}
		if !m.limiter.Allow(key) {
			log.Printf("Rate limit exceeded: %s %s key=%s", r.Method, r.URL.Path, key)
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// GetStudentID retrieves the learner ID from the request context
func GetStudentID(ctx context.Context) string {
	id, _ := ctx.Value(StudentContextKey).(string)
	return id
}
