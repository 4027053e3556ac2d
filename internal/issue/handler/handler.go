// Package handler exposes the issue endpoints over chi.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"nagrik/internal/issue/models"
	"nagrik/internal/issue/service"
	"nagrik/internal/platform/middleware"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/httputil"
)

// Service defines the issue operations the handler depends on.
type Service interface {
	Report(ctx context.Context, req service.ReportRequest) (*models.Issue, error)
	Get(ctx context.Context, issueID id.IssueID) (*models.Issue, error)
	List(ctx context.Context) ([]*models.Issue, error)
	RequestTransition(ctx context.Context, issueID id.IssueID, target models.Status, actorID id.UserID) (models.TransitionResult, error)
}

// Handler handles issue endpoints.
type Handler struct {
	issues       Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	rateLimiter  *redis.Client
	reportLimit  int
}

// New creates a new issue Handler. rateLimiter may be nil to disable the
// daily report limit.
func New(issues Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, rateLimiter *redis.Client, reportLimit int) *Handler {
	return &Handler{
		issues:       issues,
		logger:       logger,
		jwtValidator: jwtValidator,
		rateLimiter:  rateLimiter,
		reportLimit:  reportLimit,
	}
}

// Register registers the issue routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/issues", h.handleList)
	r.Get("/issues/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.With(middleware.ReportRateLimit(h.rateLimiter, h.reportLimit, h.logger)).
			Post("/issues", h.handleReport)
		r.Post("/issues/{id}/transition", h.handleTransition)
	})
}

type reportRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Address     string            `json:"address"`
	Media       []models.MediaRef `json:"media"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reporterID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	issue, err := h.issues.Report(ctx, service.ReportRequest{
		ReporterID:  reporterID,
		Title:       req.Title,
		Description: req.Description,
		Category:    models.Category(req.Category),
		Location:    models.Location{Lat: req.Lat, Lng: req.Lng, Address: req.Address},
		Media:       req.Media,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issue)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.issues.Get(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issues.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issues)
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}
	issueID, err := id.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.issues.RequestTransition(ctx, issueID, models.Status(req.Status), actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
