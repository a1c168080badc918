package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
	"github.com/Simplici0/printdesk/internal/workshop"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type documentRequest struct {
	Type string `json:"type" validate:"required,alphanum"`
}

type calculatorRequest struct {
	Name       string                `json:"name" validate:"required,max=128"`
	Technology string                `json:"technology" validate:"required,max=64"`
	IsActive   bool                  `json:"isActive"`
	Pricing    pricing.Configuration `json:"pricing"`
}

type meResponse struct {
	store.User
	Permissions []string `json:"permissions"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req workshop.Registration
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.svc.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	u, err := s.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, expires, err := s.sessions.Issue(u.ID, u.SessionVersion)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSessionCookie(w, token, expires)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expires,
		"user":      u,
	})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), currentUser(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	writeJSON(w, http.StatusOK, meResponse{User: u, Permissions: u.Capabilities.Names()})
}

func (s *server) handleCalculatorsList(w http.ResponseWriter, r *http.Request) {
	calculators, err := s.svc.ListCalculators(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculators)
}

func (s *server) handleCalculatorSave(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.svc.SaveCalculator(r.Context(), currentUser(r), store.Calculator{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		Technology: req.Technology,
		IsActive:   req.IsActive,
		Pricing:    req.Pricing,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req pricing.CalculationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Calculate(r.Context(), currentUser(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleClientsList(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.ListClients(r.Context(), currentUser(r), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *server) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	var req workshop.NewClient
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.svc.CreateClient(r.Context(), currentUser(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleClientStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.UpdateClientStatus(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.Status); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := s.svc.ListOrders(r.Context(), currentUser(r), store.OrderFilter{
		ClientID:   q.Get("clientId"),
		AssignedTo: q.Get("assignedTo"),
		Status:     q.Get("status"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	var req workshop.NewOrder
	if !s.decode(w, r, &req) {
		return
	}
	o, err := s.svc.CreateOrder(r.Context(), currentUser(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Order(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.UpdateOrderStatus(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.Status); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleOrderCalculation(w http.ResponseWriter, r *http.Request) {
	var req workshop.Attachment
	if !s.decode(w, r, &req) {
		return
	}
	snapshot, err := s.svc.AttachCalculation(r.Context(), currentUser(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *server) handleDocumentsList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *server) handleDocumentCreate(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, err := s.svc.GenerateDocument(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *server) handleDocumentFile(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Document(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(d.FileName)))
	http.ServeFile(w, r, d.FilePath)
}

func (s *server) handleMessagesList(w http.ResponseWriter, r *http.Request) {
	messages, err := s.svc.Messages(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *server) handleMessageCreate(w http.ResponseWriter, r *http.Request) {
	var req workshop.NewMessage
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.svc.SendMessage(r.Context(), currentUser(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.svc.RecentNotifications(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.UnreadCount(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *server) handleUserApprove(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ApproveUser(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUserUnlock(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.UnlockUser(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.svc.AuditLog(r.Context(), currentUser(r), store.AuditFilter{
		UserID: q.Get("userId"),
		Action: q.Get("action"),
		Limit:  limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
