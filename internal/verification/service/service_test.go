package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	issueModels "nagrik/internal/issue/models"
	notificationModels "nagrik/internal/notification/models"
	notificationService "nagrik/internal/notification/service"
	"nagrik/internal/platform/config"
	pointsModels "nagrik/internal/points/models"
	"nagrik/internal/verification/models"
	"nagrik/internal/verification/oracle"
	verificationStore "nagrik/internal/verification/store/verification"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
)

// =============================================================================
// Test Fakes
// =============================================================================

type fakeOracle struct {
	mu     sync.Mutex
	labels []oracle.Label
	err    error
	calls  atomic.Int64

	// block lets concurrency tests hold the oracle call open.
	block chan struct{}
}

func (f *fakeOracle) Classify(context.Context, string) ([]oracle.Label, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.labels, nil
}

type fakeIssueSource struct {
	mu     sync.Mutex
	issues map[id.IssueID]*issueModels.Issue
}

func newFakeIssueSource() *fakeIssueSource {
	return &fakeIssueSource{issues: make(map[id.IssueID]*issueModels.Issue)}
}

func (f *fakeIssueSource) add(issue *issueModels.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[issue.ID] = issue
}

func (f *fakeIssueSource) Get(_ context.Context, issueID id.IssueID) (*issueModels.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	copied := *issue
	return &copied, nil
}

type fakeLifecycle struct {
	mu    sync.Mutex
	calls []issueModels.Status
	err   error
}

func (f *fakeLifecycle) RequestTransition(_ context.Context, _ id.IssueID, target issueModels.Status, _ id.UserID) (issueModels.TransitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	if f.err != nil {
		return issueModels.TransitionResult{}, f.err
	}
	return issueModels.TransitionResult{NewStatus: target}, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	seen    map[string]bool
	credits int
	amounts []int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]bool)}
}

func (f *fakeLedger) CreditOnce(_ context.Context, userID id.UserID, eventKey string, amount int) (pointsModels.CreditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID.String() + "|" + eventKey
	if f.seen[key] {
		return pointsModels.CreditResult{Credited: false}, nil
	}
	f.seen[key] = true
	f.credits++
	f.amounts = append(f.amounts, amount)
	return pointsModels.CreditResult{Credited: true, NewTotal: amount}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) Fanout(context.Context, *issueModels.Issue, notificationModels.Category, []id.UserID) (notificationService.FanoutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return notificationService.FanoutResult{Delivered: 1}, nil
}

// =============================================================================
// Verification Coordinator Test Suite
// =============================================================================

type VerificationSuite struct {
	suite.Suite
	store     *verificationStore.InMemoryStore
	issues    *fakeIssueSource
	oracle    *fakeOracle
	lifecycle *fakeLifecycle
	ledger    *fakeLedger
	notifier  *fakeNotifier
	service   *Service
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) SetupTest() {
	s.store = verificationStore.NewMemory()
	s.issues = newFakeIssueSource()
	s.oracle = &fakeOracle{}
	s.lifecycle = &fakeLifecycle{}
	s.ledger = newFakeLedger()
	s.notifier = &fakeNotifier{}

	var err error
	s.service, err = New(s.store, s.issues, s.oracle, s.lifecycle, s.ledger, s.notifier)
	s.Require().NoError(err)
}

func (s *VerificationSuite) addIssue(description string, media bool) *issueModels.Issue {
	issue := &issueModels.Issue{
		ID:          id.NewIssueID(),
		ReporterID:  id.NewUserID(),
		Title:       "Road damage on main street",
		Description: description,
		Status:      issueModels.StatusPending,
	}
	if media {
		issue.Media = []issueModels.MediaRef{{
			ID:   id.NewMediaID(),
			URL:  "https://media.example/photo.jpg",
			Kind: issueModels.MediaKindImage,
		}}
	}
	s.issues.add(issue)
	return issue
}

// =============================================================================
// Outcome Tests
// =============================================================================

func (s *VerificationSuite) TestRequestVerification() {
	ctx := context.Background()

	s.Run("matching label with named term verifies", func() {
		issue := s.addIssue("There is a deep pothole near the school gate", true)
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.92}}

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(result.Verified)
		s.Equal(92, result.ConfidenceScore)
		s.Equal([]string{"pothole"}, result.Tags)
		s.True(result.Credited)
	})

	s.Run("verification credits the reporter fifty points once", func() {
		issue := s.addIssue("pothole near the school", true)
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.9}}

		_, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.Equal(1, s.ledger.credits)
		s.Equal([]int{config.VerificationBonus}, s.ledger.amounts)
	})

	s.Run("non-vocabulary label does not verify", func() {
		issue := s.addIssue("my cat is stuck in the garbage bin", true)
		s.oracle.labels = []oracle.Label{{Description: "Cat", Score: 0.88}}

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.False(result.Verified)
		s.Equal(88, result.ConfidenceScore)
		s.False(result.Credited)
		s.Equal(0, s.ledger.credits)
	})

	s.Run("vocabulary label without description support does not verify", func() {
		issue := s.addIssue("something looks off here", true)
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.95}}

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.False(result.Verified)
	})

	s.Run("generic corroborating term counts as support", func() {
		issue := s.addIssue("huge pile of garbage dumped overnight", true)
		s.oracle.labels = []oracle.Label{{Description: "Dumping", Score: 0.81}}

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(result.Verified)
		s.Equal(81, result.ConfidenceScore)
	})

	s.Run("tags are normalized, deduplicated, and capped", func() {
		issue := s.addIssue("garbage everywhere with trash and litter and waste", true)
		s.oracle.labels = []oracle.Label{
			{Description: " Garbage ", Score: 0.9},
			{Description: "garbage", Score: 0.85},
			{Description: "Trash", Score: 0.8},
			{Description: "Litter", Score: 0.7},
			{Description: "Waste", Score: 0.65},
			{Description: "Dumping", Score: 0.6},
			{Description: "Pollution", Score: 0.55},
			{Description: "Skyline", Score: 0.5},
		}

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.Len(result.Tags, models.MaxStoredTags)
		s.Equal([]string{"garbage", "trash", "litter", "waste", "dumping"}, result.Tags)
	})
}

// =============================================================================
// Edge Case Tests
// =============================================================================

func (s *VerificationSuite) TestRequestVerificationEdgeCases() {
	ctx := context.Background()

	s.Run("issue without media is a validation error", func() {
		issue := s.addIssue("no photo attached", false)
		_, err := s.service.RequestVerification(ctx, issue.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.EqualValues(0, s.oracle.calls.Load(), "oracle must not be consulted")
	})

	s.Run("missing issue is not found", func() {
		_, err := s.service.RequestVerification(ctx, id.NewIssueID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("oracle failure surfaces as unavailable and stores nothing", func() {
		issue := s.addIssue("pothole on the bridge", true)
		s.oracle.err = errors.New("connection refused")
		defer func() { s.oracle.err = nil }()

		_, err := s.service.RequestVerification(ctx, issue.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		_, err = s.store.Get(ctx, issue.ID)
		s.Error(err, "a failed oracle call must not write a record")
	})

	s.Run("empty label set surfaces as unavailable", func() {
		issue := s.addIssue("pothole on the bridge", true)
		s.oracle.labels = nil

		_, err := s.service.RequestVerification(ctx, issue.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("already verified issue short-circuits without the oracle", func() {
		issue := s.addIssue("pothole near the school", true)
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.9}}

		first, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.Require().True(first.Verified)

		callsAfterFirst := s.oracle.calls.Load()
		second, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(second.Verified)
		s.Equal(first.ConfidenceScore, second.ConfidenceScore)
		s.False(second.Credited, "re-verification must not re-credit")
		s.Equal(callsAfterFirst, s.oracle.calls.Load())
		s.Equal(1, s.ledger.credits)
	})

	s.Run("unverified record can be retried and upgraded", func() {
		issue := s.addIssue("pothole near the school", true)
		s.oracle.labels = []oracle.Label{{Description: "Sky", Score: 0.7}}

		first, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.False(first.Verified)

		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.93}}
		second, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(second.Verified)
		s.Equal(93, second.ConfidenceScore)
	})

	s.Run("verification nudges a pending issue toward verified", func() {
		issue := s.addIssue("pothole near the school", true)
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.9}}

		_, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.Contains(s.lifecycle.calls, issueModels.StatusVerified)
	})

	s.Run("lifecycle rejection does not undo the verification record", func() {
		issue := s.addIssue("pothole near the school", true)
		issue.Status = issueModels.StatusPending
		s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.9}}
		s.lifecycle.err = dErrors.New(dErrors.CodeConflict, "concurrent modification")
		defer func() { s.lifecycle.err = nil }()

		result, err := s.service.RequestVerification(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(result.Verified)

		record, err := s.store.Get(ctx, issue.ID)
		s.Require().NoError(err)
		s.True(record.Verified)
	})
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func (s *VerificationSuite) TestConcurrentRequestsCollapse() {
	ctx := context.Background()

	issue := s.addIssue("pothole near the school", true)
	s.oracle.labels = []oracle.Label{{Description: "Pothole", Score: 0.9}}
	s.oracle.block = make(chan struct{})

	const workers = 10
	var wg sync.WaitGroup
	results := make([]models.Result, workers)
	errs := make([]error, workers)

	var started sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = s.service.RequestVerification(ctx, issue.ID)
		}()
	}
	started.Wait()
	close(s.oracle.block)
	wg.Wait()

	credited := 0
	for i := range workers {
		s.Require().NoError(errs[i])
		s.True(results[i].Verified)
		if results[i].Credited {
			credited++
		}
	}
	s.LessOrEqual(int(s.oracle.calls.Load()), 2, "concurrent requests must collapse onto the in-flight call")
	s.Equal(1, s.ledger.credits, "the bonus lands exactly once")
	s.LessOrEqual(credited, 1)

	record, err := s.store.Get(ctx, issue.ID)
	s.Require().NoError(err)
	s.True(record.Verified)
}
