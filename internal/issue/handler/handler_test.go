package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"nagrik/internal/issue/models"
	"nagrik/internal/issue/service"
	"nagrik/internal/platform/middleware"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeService struct {
	issues      map[id.IssueID]*models.Issue
	reported    []service.ReportRequest
	transitions []models.Status
	err         error
}

func newFakeService() *fakeService {
	return &fakeService{issues: make(map[id.IssueID]*models.Issue)}
}

func (f *fakeService) Report(_ context.Context, req service.ReportRequest) (*models.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reported = append(f.reported, req)
	issue := &models.Issue{
		ID:         id.NewIssueID(),
		ReporterID: req.ReporterID,
		Title:      req.Title,
		Category:   req.Category,
		Status:     models.StatusPending,
		Version:    1,
	}
	f.issues[issue.ID] = issue
	return issue, nil
}

func (f *fakeService) Get(_ context.Context, issueID id.IssueID) (*models.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	issue, ok := f.issues[issueID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	return issue, nil
}

func (f *fakeService) List(_ context.Context) ([]*models.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Issue, 0, len(f.issues))
	for _, issue := range f.issues {
		out = append(out, issue)
	}
	return out, nil
}

func (f *fakeService) RequestTransition(_ context.Context, issueID id.IssueID, target models.Status, _ id.UserID) (models.TransitionResult, error) {
	if f.err != nil {
		return models.TransitionResult{}, f.err
	}
	issue, ok := f.issues[issueID]
	if !ok {
		return models.TransitionResult{}, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	f.transitions = append(f.transitions, target)
	old := issue.Status
	issue.Status = target
	return models.TransitionResult{IssueID: issueID, OldStatus: old, NewStatus: target}, nil
}

type fakeValidator struct {
	claims map[string]*middleware.JWTClaims
}

func (f *fakeValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	claims, ok := f.claims[token]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return claims, nil
}

// =============================================================================
// Suite
// =============================================================================

type HandlerSuite struct {
	suite.Suite

	svc    *fakeService
	router *chi.Mux
	userID id.UserID
	token  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.svc = newFakeService()
	s.userID = id.NewUserID()
	s.token = "citizen-token"

	validator := &fakeValidator{claims: map[string]*middleware.JWTClaims{
		s.token: {UserID: s.userID.String(), Role: "citizen"},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.svc, logger, validator, nil, 5)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Report
// =============================================================================

func (s *HandlerSuite) TestReport() {
	s.Run("creates an issue for the authenticated reporter", func() {
		rec := s.do(http.MethodPost, "/issues", s.token, map[string]any{
			"title":    "Pothole near the school gate",
			"category": "pothole",
			"lat":      12.97,
			"lng":      77.59,
		})

		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("application/json", rec.Header().Get("Content-Type"))

		var issue models.Issue
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &issue))
		s.Equal("Pothole near the school gate", issue.Title)
		s.Equal(models.StatusPending, issue.Status)

		s.Require().Len(s.svc.reported, 1)
		s.Equal(s.userID, s.svc.reported[0].ReporterID)
	})

	s.Run("rejects a missing token", func() {
		rec := s.do(http.MethodPost, "/issues", "", map[string]any{"title": "x"})
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Empty(s.svc.reported)
	})

	s.Run("rejects an unknown token", func() {
		rec := s.do(http.MethodPost, "/issues", "forged", map[string]any{"title": "x"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("rejects a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/issues", bytes.NewReader([]byte("{")))
		req.Header.Set("Authorization", "Bearer "+s.token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps service validation errors to 400", func() {
		s.svc.err = dErrors.New(dErrors.CodeValidation, "title is required")
		rec := s.do(http.MethodPost, "/issues", s.token, map[string]any{})

		s.Equal(http.StatusBadRequest, rec.Code)

		var body map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(string(dErrors.CodeValidation), body["error"])
		s.Contains(body["error_description"], "title is required")
	})
}

// =============================================================================
// Get / List
// =============================================================================

func (s *HandlerSuite) TestGet() {
	s.Run("returns an issue without auth", func() {
		issue, err := s.svc.Report(context.Background(), service.ReportRequest{
			ReporterID: s.userID,
			Title:      "Broken streetlight",
			Category:   models.CategoryStreetlight,
		})
		s.Require().NoError(err)

		rec := s.do(http.MethodGet, "/issues/"+issue.ID.String(), "", nil)
		s.Equal(http.StatusOK, rec.Code)

		var got models.Issue
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(issue.ID, got.ID)
	})

	s.Run("unknown issue returns 404", func() {
		rec := s.do(http.MethodGet, "/issues/"+id.NewIssueID().String(), "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed issue id returns 400", func() {
		rec := s.do(http.MethodGet, "/issues/not-a-uuid", "", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestList() {
	for i := range 3 {
		_, err := s.svc.Report(context.Background(), service.ReportRequest{
			ReporterID: s.userID,
			Title:      fmt.Sprintf("Issue %d", i),
			Category:   models.CategoryOther,
		})
		s.Require().NoError(err)
	}

	rec := s.do(http.MethodGet, "/issues", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	var issues []*models.Issue
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &issues))
	s.Len(issues, 3)
}

// =============================================================================
// Transition
// =============================================================================

func (s *HandlerSuite) TestTransition() {
	s.Run("applies the requested status", func() {
		issue, err := s.svc.Report(context.Background(), service.ReportRequest{
			ReporterID: s.userID,
			Title:      "Garbage pile",
			Category:   models.CategoryGarbage,
		})
		s.Require().NoError(err)

		rec := s.do(http.MethodPost, "/issues/"+issue.ID.String()+"/transition", s.token,
			map[string]string{"status": "verified"})

		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]models.Status{models.StatusVerified}, s.svc.transitions)
	})

	s.Run("requires auth", func() {
		rec := s.do(http.MethodPost, "/issues/"+id.NewIssueID().String()+"/transition", "",
			map[string]string{"status": "verified"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("invalid target maps to 422", func() {
		s.svc.err = dErrors.New(dErrors.CodeInvariantViolation, "cannot transition resolved issue")
		rec := s.do(http.MethodPost, "/issues/"+id.NewIssueID().String()+"/transition", s.token,
			map[string]string{"status": "pending"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}
