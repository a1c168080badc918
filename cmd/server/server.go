package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/metrics"
	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
	"github.com/Simplici0/printdesk/internal/workshop"
)

const maxBodyBytes = 1 << 20

type server struct {
	svc           *workshop.Service
	sessions      *auth.Sessions
	metrics       *metrics.Metrics
	logger        *zap.Logger
	validate      *validator.Validate
	secureCookies bool
}

func newServer(svc *workshop.Service, sessions *auth.Sessions, m *metrics.Metrics, logger *zap.Logger, secureCookies bool) *server {
	return &server{
		svc:           svc,
		sessions:      sessions,
		metrics:       m,
		logger:        logger,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		secureCookies: secureCookies,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Get("/calculators", s.handleCalculatorsList)
			r.Put("/calculators/{id}", s.handleCalculatorSave)
			r.Post("/calculators/{id}/calculate", s.handleCalculate)

			r.Get("/clients", s.handleClientsList)
			r.Post("/clients", s.handleClientCreate)
			r.Patch("/clients/{id}/status", s.handleClientStatus)

			r.Get("/orders", s.handleOrdersList)
			r.Post("/orders", s.handleOrderCreate)
			r.Get("/orders/{id}", s.handleOrderGet)
			r.Patch("/orders/{id}/status", s.handleOrderStatus)
			r.Post("/orders/{id}/calculation", s.handleOrderCalculation)
			r.Get("/orders/{id}/documents", s.handleDocumentsList)
			r.Post("/orders/{id}/documents", s.handleDocumentCreate)
			r.Get("/orders/{id}/messages", s.handleMessagesList)
			r.Post("/orders/{id}/messages", s.handleMessageCreate)

			r.Get("/documents/{id}/file", s.handleDocumentFile)

			r.Get("/notifications", s.handleNotifications)
			r.Get("/notifications/unread", s.handleUnreadCount)

			r.Get("/admin/users", s.handleUsersList)
			r.Post("/admin/users/{id}/approve", s.handleUserApprove)
			r.Post("/admin/users/{id}/unlock", s.handleUserUnlock)
			r.Get("/admin/logs", s.handleAuditLog)
		})
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(workshop.WithRemoteAddr(r.Context(), clientIP(r))))

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s failed %q", verrs[0].Field(), verrs[0].Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps service and pricing errors to HTTP responses.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var credErr *workshop.CredentialsError
	switch {
	case errors.As(err, &credErr):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":             "invalid password",
			"remainingAttempts": credErr.Remaining,
		})
	case errors.Is(err, workshop.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "user not found")
	case errors.Is(err, workshop.ErrAccountLocked):
		writeError(w, http.StatusLocked, "account is locked, contact an administrator")
	case errors.Is(err, workshop.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account is awaiting activation")
	case errors.Is(err, workshop.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, workshop.ErrUserExists), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, workshop.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrInvalidRequest),
		errors.Is(err, pricing.ErrUnknownFormat),
		errors.Is(err, pricing.ErrIndivisibleFormat),
		errors.Is(err, pricing.ErrInvalidConfiguration),
		errors.Is(err, workshop.ErrCalculatorInactive):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
