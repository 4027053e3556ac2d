// Package handler exposes the verification endpoints over chi.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nagrik/internal/platform/middleware"
	"nagrik/internal/verification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/httputil"
)

// Service defines the verification operations the handler depends on.
type Service interface {
	RequestVerification(ctx context.Context, issueID id.IssueID) (models.Result, error)
	Get(ctx context.Context, issueID id.IssueID) (*models.Verification, error)
}

// Handler handles verification endpoints.
type Handler struct {
	verifications Service
	logger        *slog.Logger
	jwtValidator  middleware.JWTValidator
}

// New creates a new verification Handler.
func New(verifications Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		verifications: verifications,
		logger:        logger,
		jwtValidator:  jwtValidator,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/issues/{id}/verification", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/issues/{id}/verify", h.handleVerify)
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.verifications.RequestVerification(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.verifications.Get(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}
