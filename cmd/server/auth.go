package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/store"
)

const sessionCookieName = "printdesk_session"

type actorKey struct{}

func (s *server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// requireSession resolves the session to an active account and stores it in
// the request context.
func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Verify(sessionToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		u, err := s.svc.User(r.Context(), session.UserID)
		if err != nil {
			s.logger.Debug("session for unknown user", zap.String("user_id", session.UserID), zap.Error(err))
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if session.Version != u.SessionVersion {
			s.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "session has ended")
			return
		}
		if !u.IsActive || u.IsLocked {
			s.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "account is not available")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, u)))
	})
}

func currentUser(r *http.Request) store.User {
	u, _ := r.Context().Value(actorKey{}).(store.User)
	return u
}
