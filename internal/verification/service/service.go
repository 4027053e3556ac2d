// Package service implements the verification coordinator. It asks a media
// oracle to classify an issue's evidence, applies the tag-matching rule, and
// persists a monotonic verification record. The oracle is consulted at most
// once per issue at a time: concurrent requests for the same issue collapse
// into a single in-flight call, and the verification bonus is guarded by the
// points ledger's event-key uniqueness rather than by this package's locking.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	issueModels "nagrik/internal/issue/models"
	notificationModels "nagrik/internal/notification/models"
	notificationService "nagrik/internal/notification/service"
	"nagrik/internal/platform/config"
	"nagrik/internal/platform/events"
	pointsModels "nagrik/internal/points/models"
	"nagrik/internal/verification/metrics"
	"nagrik/internal/verification/models"
	"nagrik/internal/verification/oracle"
	verificationStore "nagrik/internal/verification/store/verification"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
	platformstrings "nagrik/pkg/platform/strings"
)

// IssueSource loads the issue under verification.
type IssueSource interface {
	Get(ctx context.Context, issueID id.IssueID) (*issueModels.Issue, error)
}

// Lifecycle moves a freshly verified issue out of pending.
type Lifecycle interface {
	RequestTransition(ctx context.Context, issueID id.IssueID, target issueModels.Status, actorID id.UserID) (issueModels.TransitionResult, error)
}

// PointsLedger credits the verification bonus exactly once per event key.
type PointsLedger interface {
	CreditOnce(ctx context.Context, userID id.UserID, eventKey string, amount int) (pointsModels.CreditResult, error)
}

// Notifier tells the reporter about the verification outcome.
type Notifier interface {
	Fanout(ctx context.Context, issue *issueModels.Issue, category notificationModels.Category, recipients []id.UserID) (notificationService.FanoutResult, error)
}

type Service struct {
	store     verificationStore.Store
	issues    IssueSource
	oracle    oracle.Oracle
	lifecycle Lifecycle
	points    PointsLedger
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer
	inflight  singleflight.Group
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

func New(store verificationStore.Store, issues IssueSource, o oracle.Oracle, lifecycle Lifecycle, points PointsLedger, notifier Notifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("verification store is required")
	}
	if issues == nil {
		return nil, fmt.Errorf("issue source is required")
	}
	if o == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("lifecycle is required")
	}
	if points == nil {
		return nil, fmt.Errorf("points ledger is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	svc := &Service{
		store:     store,
		issues:    issues,
		oracle:    o,
		lifecycle: lifecycle,
		points:    points,
		notifier:  notifier,
		logger:    slog.Default(),
		tracer:    otel.Tracer("nagrik/verification"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Get returns the verification record for an issue.
func (s *Service) Get(ctx context.Context, issueID id.IssueID) (*models.Verification, error) {
	record, err := s.store.Get(ctx, issueID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification record for issue")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return record, nil
}

// RequestVerification runs the verification pipeline for one issue:
//
//  1. the issue must exist and carry media;
//  2. an already-verified issue short-circuits without touching the oracle;
//  3. concurrent requests for the same issue share one oracle call;
//  4. the oracle's labels go through the matching rule and the outcome is
//     upserted, with verified kept monotonic;
//  5. a verifying outcome credits the reporter's bonus (ledger-deduplicated),
//     nudges the lifecycle toward verified, and notifies the reporter.
//
// Oracle failure or an empty label set leaves the issue unverified and
// surfaces as CodeUnavailable so callers can retry.
func (s *Service) RequestVerification(ctx context.Context, issueID id.IssueID) (models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RequestVerification",
		trace.WithAttributes(attribute.String("issue.id", issueID.String())))
	defer span.End()

	issue, err := s.issues.Get(ctx, issueID)
	if err != nil {
		return models.Result{}, err
	}
	if len(issue.Media) == 0 {
		return models.Result{}, dErrors.New(dErrors.CodeValidation, "issue has no media to verify")
	}

	if existing, err := s.store.Get(ctx, issueID); err == nil && existing.Verified {
		return models.Result{
			Verified:        true,
			ConfidenceScore: existing.ConfidenceScore,
			Tags:            existing.Tags,
		}, nil
	}

	out, err, shared := s.inflight.Do(issueID.String(), func() (any, error) {
		result, err := s.verify(ctx, issue)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if shared {
		s.metrics.IncCollapsed()
	}
	if err != nil {
		return models.Result{}, err
	}
	result := out.(models.Result)
	if shared {
		// Followers report the shared outcome but never the credit: the
		// bonus belongs to the request that performed it.
		result.Credited = false
	}
	return result, nil
}

func (s *Service) verify(ctx context.Context, issue *issueModels.Issue) (models.Result, error) {
	labels, err := s.oracle.Classify(ctx, issue.Media[0].URL)
	if err != nil {
		s.metrics.IncOracleFailures()
		s.logger.WarnContext(ctx, "oracle classification failed",
			"issue_id", issue.ID,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			return models.Result{}, err
		}
		return models.Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle classification failed")
	}
	if len(labels) == 0 {
		s.metrics.IncOracleFailures()
		return models.Result{}, dErrors.New(dErrors.CodeUnavailable, "oracle returned no labels")
	}

	verified, tags := matchLabels(issue.Description, labels)
	confidence := confidenceFrom(labels)

	record, err := s.store.Upsert(ctx, &models.Verification{
		IssueID:         issue.ID,
		Verified:        verified,
		ConfidenceScore: confidence,
		Tags:            tags,
	})
	if err != nil {
		return models.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification")
	}

	s.logger.InfoContext(ctx, "verification completed",
		"issue_id", issue.ID,
		"verified", record.Verified,
		"confidence_score", record.ConfidenceScore,
		"tags", record.Tags,
	)

	result := models.Result{
		Verified:        record.Verified,
		ConfidenceScore: record.ConfidenceScore,
		Tags:            record.Tags,
	}
	if record.Verified {
		s.metrics.IncRequests("verified")
		result.Credited = s.onVerified(ctx, issue)
	} else {
		s.metrics.IncRequests("unverified")
	}
	return result, nil
}

// onVerified runs the post-verification side effects. All of them are
// best-effort: the verification record is already committed.
func (s *Service) onVerified(ctx context.Context, issue *issueModels.Issue) bool {
	credit, err := s.points.CreditOnce(ctx, issue.ReporterID,
		pointsModels.VerifyEventKey(issue.ID), config.VerificationBonus)
	if err != nil {
		s.logger.WarnContext(ctx, "verification bonus credit failed",
			"issue_id", issue.ID,
			"reporter_id", issue.ReporterID,
			"error", err,
		)
	}

	if issue.Status == issueModels.StatusPending {
		if _, err := s.lifecycle.RequestTransition(ctx, issue.ID, issueModels.StatusVerified, issue.ReporterID); err != nil {
			s.logger.WarnContext(ctx, "post-verification transition failed",
				"issue_id", issue.ID,
				"error", err,
			)
		}
	}

	if _, err := s.notifier.Fanout(ctx, issue, notificationModels.CategoryIssueUpdate, []id.UserID{issue.ReporterID}); err != nil {
		s.logger.WarnContext(ctx, "verification notification failed",
			"issue_id", issue.ID,
			"error", err,
		)
	}

	events.Publish(ctx, s.publisher, s.logger, events.Event{
		Action:  events.ActionIssueVerified,
		IssueID: issue.ID.String(),
		ActorID: issue.ReporterID.String(),
	})

	return credit.Credited
}

// matchLabels applies the verification rule: a label verifies the issue when
// its normalized form is in the controlled vocabulary and the issue's
// description either names that label or uses a generic corroborating term.
// Matching vocabulary labels are returned as the record's tags regardless of
// the verdict, capped at MaxStoredTags.
func matchLabels(description string, labels []oracle.Label) (bool, []string) {
	desc := strings.ToLower(description)

	verified := false
	var raw []string
	for _, label := range labels {
		normalized := strings.ToLower(strings.TrimSpace(label.Description))
		if !models.IsValidTag(normalized) {
			continue
		}
		raw = append(raw, normalized)
		if strings.Contains(desc, normalized) {
			verified = true
			continue
		}
		for _, term := range models.CorroboratingTerms() {
			if strings.Contains(desc, term) {
				verified = true
				break
			}
		}
	}

	tags := platformstrings.DedupeAndTrimLower(raw)
	if len(tags) > models.MaxStoredTags {
		tags = tags[:models.MaxStoredTags]
	}
	return verified, tags
}

// confidenceFrom derives the percentage confidence from the oracle's top
// label, clamped to [0, 100].
func confidenceFrom(labels []oracle.Label) int {
	score := int(math.Round(labels[0].Score * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
