package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	issueModels "nagrik/internal/issue/models"
	"nagrik/internal/notification/models"
	notificationStore "nagrik/internal/notification/store/notification"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
)

// =============================================================================
// Notifier Fan-out Test Suite
// =============================================================================

type NotifierSuite struct {
	suite.Suite
	store   *notificationStore.InMemoryStore
	service *Service
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierSuite))
}

func (s *NotifierSuite) SetupTest() {
	s.store = notificationStore.NewMemory()

	var err error
	s.service, err = New(s.store)
	s.Require().NoError(err)
}

func (s *NotifierSuite) issue() *issueModels.Issue {
	return &issueModels.Issue{
		ID:         id.NewIssueID(),
		ReporterID: id.NewUserID(),
		Title:      "Broken streetlight",
		Status:     issueModels.StatusResolved,
	}
}

// =============================================================================
// Fanout Tests
// =============================================================================

func (s *NotifierSuite) TestFanout() {
	ctx := context.Background()

	s.Run("delivers one notification per recipient", func() {
		issue := s.issue()
		a, b := id.NewUserID(), id.NewUserID()

		result, err := s.service.Fanout(ctx, issue, models.CategoryIssueResolution, []id.UserID{a, b})
		s.Require().NoError(err)
		s.Equal(2, result.Delivered)
		s.Equal(0, result.Failed)

		got, err := s.service.ListForUser(ctx, a)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(models.ResolvedMessage(issue.Title), got[0].Message)
	})

	s.Run("duplicate recipients collapse to one notification", func() {
		issue := s.issue()
		reporter := issue.ReporterID

		// Reporter doubles as an assignee in the resolution fan-out.
		result, err := s.service.Fanout(ctx, issue, models.CategoryIssueResolution, []id.UserID{reporter, reporter})
		s.Require().NoError(err)
		s.Equal(1, result.Delivered)

		got, err := s.service.ListForUser(ctx, reporter)
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("nil recipients are skipped", func() {
		issue := s.issue()
		result, err := s.service.Fanout(ctx, issue, models.CategoryIssueUpdate, []id.UserID{{}, id.NewUserID()})
		s.Require().NoError(err)
		s.Equal(1, result.Delivered)
	})

	s.Run("partial failure delivers the rest and reports degradation", func() {
		issue := s.issue()
		healthy, broken := id.NewUserID(), id.NewUserID()
		s.store.FailFor = map[id.UserID]error{broken: errors.New("mailbox full")}
		defer func() { s.store.FailFor = nil }()

		result, err := s.service.Fanout(ctx, issue, models.CategoryIssueUpdate, []id.UserID{broken, healthy})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal(1, result.Delivered)
		s.Equal(1, result.Failed)

		got, listErr := s.service.ListForUser(ctx, healthy)
		s.Require().NoError(listErr)
		s.Len(got, 1, "the healthy recipient still gets notified")
	})

	s.Run("invalid category is a validation error", func() {
		_, err := s.service.Fanout(ctx, s.issue(), models.Category("sms"), []id.UserID{id.NewUserID()})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// MarkRead Tests
// =============================================================================

func (s *NotifierSuite) TestMarkRead() {
	ctx := context.Background()

	s.Run("flips the read flag for the owner", func() {
		issue := s.issue()
		recipient := id.NewUserID()
		_, err := s.service.Fanout(ctx, issue, models.CategoryIssueUpdate, []id.UserID{recipient})
		s.Require().NoError(err)

		got, err := s.service.ListForUser(ctx, recipient)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.False(got[0].Read)

		s.Require().NoError(s.service.MarkRead(ctx, got[0].ID, recipient))

		got, err = s.service.ListForUser(ctx, recipient)
		s.Require().NoError(err)
		s.True(got[0].Read)
	})

	s.Run("another user's notification is not found", func() {
		issue := s.issue()
		recipient := id.NewUserID()
		_, err := s.service.Fanout(ctx, issue, models.CategoryIssueUpdate, []id.UserID{recipient})
		s.Require().NoError(err)

		got, err := s.service.ListForUser(ctx, recipient)
		s.Require().NoError(err)

		err = s.service.MarkRead(ctx, got[0].ID, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Template Tests
// =============================================================================

func (s *NotifierSuite) TestMessageTemplates() {
	s.Equal(`Your issue "Pothole" has been reported successfully.`, models.ReportedMessage("Pothole"))
	s.Equal(`Your issue "Pothole" status changed to "verified".`, models.StatusMessage("Pothole", "verified"))
	s.Equal(`The issue "Pothole" has been resolved.`, models.ResolvedMessage("Pothole"))
}
