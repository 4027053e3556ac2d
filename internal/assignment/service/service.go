// Package service implements the assignment coordinator. Creating an
// assignment and moving the issue toward in_progress are two steps: the
// store's one-active guard decides who wins a racing assignment, and only
// the winner drives the lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nagrik/internal/assignment/metrics"
	"nagrik/internal/assignment/models"
	assignmentStore "nagrik/internal/assignment/store/assignment"
	issueModels "nagrik/internal/issue/models"
	notificationModels "nagrik/internal/notification/models"
	notificationService "nagrik/internal/notification/service"
	"nagrik/internal/platform/events"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
)

// Lifecycle moves the issue once an assignment lands.
type Lifecycle interface {
	Get(ctx context.Context, issueID id.IssueID) (*issueModels.Issue, error)
	RequestTransition(ctx context.Context, issueID id.IssueID, target issueModels.Status, actorID id.UserID) (issueModels.TransitionResult, error)
}

// Notifier tells the worker about a new assignment.
type Notifier interface {
	Fanout(ctx context.Context, issue *issueModels.Issue, category notificationModels.Category, recipients []id.UserID) (notificationService.FanoutResult, error)
}

type Service struct {
	store     assignmentStore.Store
	lifecycle Lifecycle
	notifier  Notifier
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

func New(store assignmentStore.Store, lifecycle Lifecycle, notifier Notifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("assignment store is required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("lifecycle is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	svc := &Service{
		store:     store,
		lifecycle: lifecycle,
		notifier:  notifier,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Assign puts a worker on an issue. The store's partial unique index is the
// arbiter: of N racing assignments exactly one commits, the rest fail with
// CodeConflict. The winner then requests in_progress, which is a no-op when
// the issue is already there and a tolerated failure when the issue moved to
// a state the lifecycle table rejects.
func (s *Service) Assign(ctx context.Context, issueID id.IssueID, assigneeID, assignerID id.UserID) (*models.Assignment, error) {
	if assigneeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "assignee_id is required")
	}
	if assignerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "assigner_id is required")
	}

	issue, err := s.lifecycle.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot assign an issue in terminal status %q", issue.Status)
	}

	assignment := &models.Assignment{
		IssueID:    issueID,
		AssigneeID: assigneeID,
		AssignerID: assignerID,
	}
	if err := s.store.CreateActive(ctx, assignment); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			s.metrics.IncDuplicates()
			return nil, dErrors.New(dErrors.CodeConflict, "issue already has an active assignment")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assignment")
	}
	s.metrics.IncAssignments()

	if _, err := s.lifecycle.RequestTransition(ctx, issueID, issueModels.StatusInProgress, assignerID); err != nil {
		s.logger.WarnContext(ctx, "post-assignment transition failed",
			"issue_id", issueID,
			"assignment_id", assignment.ID,
			"error", err,
		)
	}

	if _, err := s.notifier.Fanout(ctx, issue, notificationModels.CategoryIssueUpdate, []id.UserID{assigneeID}); err != nil {
		s.logger.WarnContext(ctx, "assignment notification failed",
			"issue_id", issueID,
			"assignee_id", assigneeID,
			"error", err,
		)
	}

	events.Publish(ctx, s.publisher, s.logger, events.Event{
		Action:  events.ActionIssueAssigned,
		IssueID: issueID.String(),
		ActorID: assignerID.String(),
	})

	s.logger.InfoContext(ctx, "issue assigned",
		"issue_id", issueID,
		"assignment_id", assignment.ID,
		"assignee_id", assigneeID,
	)
	return assignment, nil
}

// Get returns one assignment.
func (s *Service) Get(ctx context.Context, assignmentID id.AssignmentID) (*models.Assignment, error) {
	assignment, err := s.store.Get(ctx, assignmentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "assignment not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assignment")
	}
	return assignment, nil
}

// Complete closes an assignment with a terminal status, freeing the issue
// for reassignment.
func (s *Service) Complete(ctx context.Context, assignmentID id.AssignmentID, status models.Status) (*models.Assignment, error) {
	if !status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%q is not a terminal assignment status", status)
	}

	assignment, err := s.store.Complete(ctx, assignmentID, status)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "assignment not found")
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "assignment is already closed")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete assignment")
	}

	s.metrics.IncCompletions(string(status))
	s.logger.InfoContext(ctx, "assignment completed",
		"assignment_id", assignmentID,
		"status", status,
	)
	return assignment, nil
}

// ListForAssignee returns a worker's assignments, newest first.
func (s *Service) ListForAssignee(ctx context.Context, assigneeID id.UserID) ([]*models.Assignment, error) {
	assignments, err := s.store.ListByAssignee(ctx, assigneeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	return assignments, nil
}
