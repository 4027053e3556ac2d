// Package service implements the issue lifecycle state machine. It owns every
// status write: transitions are validated against the lifecycle table,
// persisted with a compare-and-set, and only a committed write triggers side
// effects. Side effects are failure-isolated; the status write is
// authoritative and never rolled back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nagrik/internal/issue/metrics"
	"nagrik/internal/issue/models"
	issueStore "nagrik/internal/issue/store/issue"
	notificationModels "nagrik/internal/notification/models"
	notificationService "nagrik/internal/notification/service"
	"nagrik/internal/platform/config"
	"nagrik/internal/platform/events"
	pointsModels "nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
)

// Notifier fans a transition out to its stakeholders.
type Notifier interface {
	Fanout(ctx context.Context, issue *models.Issue, category notificationModels.Category, recipients []id.UserID) (notificationService.FanoutResult, error)
}

// PointsLedger credits bonuses exactly once per event key.
type PointsLedger interface {
	CreditOnce(ctx context.Context, userID id.UserID, eventKey string, amount int) (pointsModels.CreditResult, error)
}

// AssigneeSource lists the distinct assignees an issue has ever had.
type AssigneeSource interface {
	AssigneeIDs(ctx context.Context, issueID id.IssueID) ([]id.UserID, error)
}

type Service struct {
	store     issueStore.Store
	notifier  Notifier
	points    PointsLedger
	assignees AssigneeSource
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer
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

func New(store issueStore.Store, notifier Notifier, points PointsLedger, assignees AssigneeSource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("issue store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if points == nil {
		return nil, fmt.Errorf("points ledger is required")
	}
	if assignees == nil {
		return nil, fmt.Errorf("assignee source is required")
	}

	svc := &Service{
		store:     store,
		notifier:  notifier,
		points:    points,
		assignees: assignees,
		logger:    slog.Default(),
		tracer:    otel.Tracer("nagrik/issue"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ReportRequest carries a new issue report.
type ReportRequest struct {
	ReporterID  id.UserID
	Title       string
	Description string
	Category    models.Category
	Location    models.Location
	Media       []models.MediaRef
}

// Report creates a new issue in pending state and notifies the reporter.
func (s *Service) Report(ctx context.Context, req ReportRequest) (*models.Issue, error) {
	if req.ReporterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "reporter_id is required")
	}
	if req.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if req.Location.Lat == 0 && req.Location.Lng == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "location (lat, lng) is required")
	}
	if !req.Category.IsValid() {
		req.Category = models.CategoryOther
	}

	issue := &models.Issue{
		ID:          id.NewIssueID(),
		ReporterID:  req.ReporterID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      models.StatusPending,
		Location:    req.Location,
		Media:       req.Media,
	}
	if err := s.store.Create(ctx, issue); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issue")
	}

	// Best-effort: a failed receipt notification never fails the report.
	if _, err := s.notifier.Fanout(ctx, issue, notificationModels.CategoryIssueReport, []id.UserID{issue.ReporterID}); err != nil {
		s.logger.WarnContext(ctx, "report receipt notification failed",
			"issue_id", issue.ID,
			"error", err,
		)
	}
	return issue, nil
}

// Get returns one issue.
func (s *Service) Get(ctx context.Context, issueID id.IssueID) (*models.Issue, error) {
	issue, err := s.store.Get(ctx, issueID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issue")
	}
	return issue, nil
}

// List returns all issues, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Issue, error) {
	issues, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issues")
	}
	return issues, nil
}

// RequestTransition drives the state machine:
//
//  1. read current status;
//  2. reject pairs absent from the lifecycle table;
//  3. compare-and-set on the version read — a lost race surfaces as a
//     conflict unless the winner already set the same target, which is a
//     no-op success;
//  4. on commit, emit exactly one StatusChanged consumed by the notifier
//     (always) and the points ledger (resolution only).
//
// Side-effect failure after commit degrades the result but never rolls back.
func (s *Service) RequestTransition(ctx context.Context, issueID id.IssueID, target models.Status, actorID id.UserID) (models.TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "issue.RequestTransition",
		trace.WithAttributes(
			attribute.String("issue.id", issueID.String()),
			attribute.String("issue.target_status", string(target)),
		))
	defer span.End()

	if !target.IsValid() {
		return models.TransitionResult{}, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", target)
	}

	issue, err := s.store.Get(ctx, issueID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.TransitionResult{}, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	if err != nil {
		return models.TransitionResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issue")
	}

	// Requesting the status already in place is idempotent.
	if issue.Status == target {
		return models.TransitionResult{IssueID: issueID, OldStatus: issue.Status, NewStatus: target, NoOp: true}, nil
	}

	if !models.CanTransition(issue.Status, target) {
		s.metrics.IncInvalid()
		return models.TransitionResult{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"invalid transition from %q to %q", issue.Status, target)
	}

	oldStatus := issue.Status
	updated, err := s.store.UpdateStatus(ctx, issueID, issue.Version, target)
	if errors.Is(err, sentinel.ErrVersionConflict) {
		// Another actor moved first. If they landed on the same target the
		// request is satisfied; otherwise the caller must re-read and decide.
		if current, readErr := s.store.Get(ctx, issueID); readErr == nil && current.Status == target {
			return models.TransitionResult{IssueID: issueID, OldStatus: oldStatus, NewStatus: target, NoOp: true}, nil
		}
		s.metrics.IncConflicts()
		return models.TransitionResult{}, dErrors.New(dErrors.CodeConflict,
			"issue was modified concurrently, re-read and retry")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.TransitionResult{}, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	if err != nil {
		return models.TransitionResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write status")
	}

	s.metrics.IncTransitions(string(target))
	s.logger.InfoContext(ctx, "issue transitioned",
		"issue_id", issueID,
		"from", oldStatus,
		"to", target,
		"actor_id", actorID,
	)

	degraded := s.dispatchSideEffects(ctx, models.StatusChanged{
		Issue:     updated,
		OldStatus: oldStatus,
		NewStatus: target,
		ActorID:   actorID,
	})
	if degraded {
		s.metrics.IncDegraded()
	}

	return models.TransitionResult{
		IssueID:   issueID,
		OldStatus: oldStatus,
		NewStatus: target,
		Degraded:  degraded,
	}, nil
}

// dispatchSideEffects consumes one StatusChanged event. Each consumer is
// isolated: a notifier failure still lets the points ledger run, and vice
// versa. Returns whether anything failed.
func (s *Service) dispatchSideEffects(ctx context.Context, event models.StatusChanged) bool {
	degraded := false
	issue := event.Issue

	recipients := []id.UserID{issue.ReporterID}
	category := notificationModels.CategoryIssueUpdate
	var assignees []id.UserID

	if event.NewStatus == models.StatusResolved {
		category = notificationModels.CategoryIssueResolution
		listed, err := s.assignees.AssigneeIDs(ctx, issue.ID)
		if err != nil {
			degraded = true
			s.logger.WarnContext(ctx, "failed to list assignees for resolution fan-out",
				"issue_id", issue.ID,
				"error", err,
			)
		} else {
			assignees = listed
			recipients = append(recipients, listed...)
		}
	}

	if _, err := s.notifier.Fanout(ctx, issue, category, recipients); err != nil {
		degraded = true
		s.logger.WarnContext(ctx, "transition notification fan-out failed",
			"issue_id", issue.ID,
			"to", event.NewStatus,
			"error", err,
		)
	}

	if event.NewStatus == models.StatusResolved {
		for _, userID := range append([]id.UserID{issue.ReporterID}, assignees...) {
			key := pointsModels.ResolveEventKey(issue.ID, userID)
			if _, err := s.points.CreditOnce(ctx, userID, key, config.ResolutionBonus); err != nil {
				degraded = true
				s.logger.WarnContext(ctx, "resolution bonus credit failed",
					"issue_id", issue.ID,
					"user_id", userID,
					"error", err,
				)
			}
		}
	}

	events.Publish(ctx, s.publisher, s.logger, events.Event{
		Action:    events.ActionStatusChanged,
		IssueID:   issue.ID.String(),
		ActorID:   event.ActorID.String(),
		OldStatus: string(event.OldStatus),
		NewStatus: string(event.NewStatus),
	})

	return degraded
}
