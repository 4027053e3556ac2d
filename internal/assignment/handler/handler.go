// Package handler exposes the assignment endpoints over chi.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nagrik/internal/assignment/models"
	"nagrik/internal/platform/middleware"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/httputil"
)

// Service defines the assignment operations the handler depends on.
type Service interface {
	Assign(ctx context.Context, issueID id.IssueID, assigneeID, assignerID id.UserID) (*models.Assignment, error)
	Complete(ctx context.Context, assignmentID id.AssignmentID, status models.Status) (*models.Assignment, error)
	ListForAssignee(ctx context.Context, assigneeID id.UserID) ([]*models.Assignment, error)
}

// Handler handles assignment endpoints. All of them require authentication.
type Handler struct {
	assignments  Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new assignment Handler.
func New(assignments Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		assignments:  assignments,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the assignment routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/assignments", h.handleAssign)
		r.Post("/assignments/{id}/complete", h.handleComplete)
		r.Get("/assignments", h.handleList)
	})
}

type assignRequest struct {
	IssueID    string `json:"issue_id"`
	AssigneeID string `json:"assignee_id"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assignerID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	issueID, err := id.ParseIssueID(req.IssueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assigneeID, err := id.ParseUserID(req.AssigneeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assignment, err := h.assignments.Assign(ctx, issueID, assigneeID, assignerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, assignment)
}

type completeRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := id.ParseAssignmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	assignment, err := h.assignments.Complete(r.Context(), assignmentID, models.Status(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignment)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assigneeID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}

	assignments, err := h.assignments.ListForAssignee(ctx, assigneeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignments)
}
