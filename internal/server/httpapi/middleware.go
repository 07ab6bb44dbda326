package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/gorilla/mux"
)

const (
	msgTokenMissing = "Access token missing or invalid"
	msgTokenInvalid = "Invalid or expired token"
)

// Authenticate gates a handler on a valid bearer access token.
//
// No usable bearer value yields 401; a token that fails signature or
// expiry checks yields 403. On success the subject is stored in the request
// context (see auth.UserIDFromContext). The credential store is never
// consulted, so a logged-out account keeps access until its token expires.
func Authenticate(tokens TokenVerifier, l logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := common.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if !ok {
				writeMessage(w, http.StatusUnauthorized, msgTokenMissing)
				return
			}

			userID, err := tokens.ParseAccess(token)
			if err != nil {
				l.Debug(r.Context(), "access token rejected", "path", r.URL.Path, "reason", err.Error())
				writeMessage(w, http.StatusForbidden, msgTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs method, path, status and duration. Bodies and headers
// are never logged.
func RequestLogger(l logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}
