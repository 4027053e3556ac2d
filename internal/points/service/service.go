// Package service implements the points ledger. Crediting is exactly-once per
// (user, event key): the store's uniqueness guard, not a lock, carries the
// guarantee, so credits for different event keys never contend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nagrik/internal/platform/events"
	"nagrik/internal/points/metrics"
	"nagrik/internal/points/models"
	ledgerStore "nagrik/internal/points/store/ledger"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
)

type Store = ledgerStore.Store

type Service struct {
	store     ledgerStore.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func New(store ledgerStore.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}

	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreditOnce credits amount to the user unless the event key was already
// rewarded. A duplicate is a silent no-op with Credited=false; the caller
// decides what to tell the user. Safe under arbitrary duplication, retries,
// and concurrent handlers.
func (s *Service) CreditOnce(ctx context.Context, userID id.UserID, eventKey string, amount int) (models.CreditResult, error) {
	if userID.IsNil() {
		return models.CreditResult{}, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if eventKey == "" {
		return models.CreditResult{}, dErrors.New(dErrors.CodeValidation, "event_key is required")
	}
	if amount <= 0 {
		return models.CreditResult{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	entry := &models.CreditEntry{UserID: userID, EventKey: eventKey, Amount: amount}
	err := s.store.Insert(ctx, entry)
	credited := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrDuplicate) {
		return models.CreditResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credit")
	}

	total, err := s.store.Total(ctx, userID)
	if err != nil {
		return models.CreditResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read points total")
	}

	if credited {
		s.metrics.IncCredits(amount)
		s.logger.InfoContext(ctx, "points credited",
			"user_id", userID,
			"event_key", eventKey,
			"amount", amount,
			"new_total", total,
		)
		events.Publish(ctx, s.publisher, s.logger, events.Event{
			Action:   events.ActionPointsCredited,
			UserID:   userID.String(),
			EventKey: eventKey,
			Amount:   amount,
		})
	} else {
		s.metrics.IncDuplicates()
	}

	return models.CreditResult{Credited: credited, NewTotal: total}, nil
}

// Total returns the user's current points balance.
func (s *Service) Total(ctx context.Context, userID id.UserID) (int, error) {
	if userID.IsNil() {
		return 0, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	total, err := s.store.Total(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read points total")
	}
	return total, nil
}

// Leaderboard returns the top users by points.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	out, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read leaderboard")
	}
	return out, nil
}
