// Package handler exposes the points endpoints over chi.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nagrik/internal/platform/middleware"
	"nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/httputil"
)

// Service defines the points operations the handler depends on.
type Service interface {
	Total(ctx context.Context, userID id.UserID) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Handler handles points endpoints.
type Handler struct {
	points       Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new points Handler.
func New(points Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		points:       points,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the points routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/leaderboard", h.handleLeaderboard)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/points", h.handleTotal)
	})
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user identity"))
		return
	}

	total, err := h.points.Total(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"total": total})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.points.Leaderboard(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
