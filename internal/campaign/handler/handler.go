// Package handler exposes the campaign endpoints over chi.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"nagrik/internal/campaign/models"
	"nagrik/internal/campaign/service"
	"nagrik/internal/platform/middleware"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/httputil"
)

// Service defines the campaign operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Campaign, error)
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID id.CampaignID, status models.Status) (*models.Campaign, error)
	Join(ctx context.Context, campaignID id.CampaignID, userID id.UserID) (models.JoinResult, error)
}

// Handler handles campaign endpoints.
type Handler struct {
	campaigns    Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new campaign Handler.
func New(campaigns Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		campaigns:    campaigns,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the campaign routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns", h.handleList)
	r.Get("/campaigns/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/campaigns", h.handleCreate)
		r.Post("/campaigns/{id}/status", h.handleUpdateStatus)
		r.Post("/campaigns/{id}/join", h.handleJoin)
	})
}

type createRequest struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	JoinBonus int       `json:"join_bonus"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	campaign, err := h.campaigns.Create(r.Context(), service.CreateRequest{
		Name:      req.Name,
		Date:      req.Date,
		JoinBonus: req.JoinBonus,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, campaign)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	campaign, err := h.campaigns.Get(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaigns)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	campaign, err := h.campaigns.UpdateStatus(r.Context(), campaignID, models.Status(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.campaigns.Join(ctx, campaignID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
