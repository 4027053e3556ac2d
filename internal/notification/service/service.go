// Package service implements the notifier fan-out. Fan-out is at-least-once:
// a failure for one recipient never aborts the batch, and the triggering
// state transition is never rolled back on notification failure.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	issueModels "nagrik/internal/issue/models"
	"nagrik/internal/notification/models"
	notificationStore "nagrik/internal/notification/store/notification"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
)

type Store = notificationStore.Store

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}

	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// FanoutResult reports how a fan-out batch went.
type FanoutResult struct {
	Delivered int
	Failed    int
}

// Fanout creates one notification per distinct recipient. Duplicate
// identities in the recipient list (reporter who is also an assignee)
// collapse to a single notification. Partial failure is reported through the
// joined error alongside the counts; callers treat it as degradation, not
// rollback.
func (s *Service) Fanout(ctx context.Context, issue *issueModels.Issue, category models.Category, recipients []id.UserID) (FanoutResult, error) {
	if !category.IsValid() {
		return FanoutResult{}, dErrors.New(dErrors.CodeValidation, "invalid notification category")
	}

	seen := make(map[id.UserID]struct{}, len(recipients))
	var result FanoutResult
	var errs []error

	for _, recipient := range recipients {
		if recipient.IsNil() {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}

		issueID := issue.ID
		n := &models.Notification{
			RecipientID: recipient,
			Message:     models.MessageFor(category, issue.Title, string(issue.Status)),
			Category:    category,
			IssueID:     &issueID,
		}
		if err := s.store.Create(ctx, n); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient, err))
			s.logger.WarnContext(ctx, "notification delivery failed",
				"recipient_id", recipient,
				"issue_id", issue.ID,
				"category", category,
				"error", err,
			)
			continue
		}
		result.Delivered++
	}

	if len(errs) > 0 {
		return result, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "partial notification failure")
	}
	return result, nil
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error) {
	out, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

// MarkRead flips the read flag on one of the caller's notifications.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	err := s.store.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}
