package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/dto"
	"github.com/SscSPs/construction_ledger/internal/handlers"
	"github.com/SscSPs/construction_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Mock DistributionService ---
type MockDistributionService struct {
	mock.Mock
}

var _ portssvc.DistributionSvcFacade = (*MockDistributionService)(nil)

func (m *MockDistributionService) SelectLogs(ctx context.Context, projectID, currency string, logIDs []string) (*domain.Selection, error) {
	args := m.Called(ctx, projectID, currency, logIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Selection), args.Error(1)
}

func (m *MockDistributionService) ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error) {
	args := m.Called(ctx, projectID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PercentageLog), args.Error(1)
}

func (m *MockDistributionService) ComputeShares(ctx context.Context, pool domain.PoolAmounts, participants []domain.ShareInput, company domain.ShareInput) (*domain.ShareSet, error) {
	args := m.Called(ctx, pool, participants, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShareSet), args.Error(1)
}

func (m *MockDistributionService) Commit(ctx context.Context, projectID string, selection domain.Selection, shares domain.ShareSet, actor domain.Actor, opts domain.CommitOptions) (*domain.DistributionResult, error) {
	args := m.Called(ctx, projectID, selection, shares, actor, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DistributionResult), args.Error(1)
}

func (m *MockDistributionService) ReplayRun(ctx context.Context, projectID, idempotencyKey string) (*domain.DistributionResult, error) {
	args := m.Called(ctx, projectID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DistributionResult), args.Error(1)
}

// --- Mock MapsService ---
type MockMapsService struct {
	mock.Mock
}

var _ portssvc.MapsDistributionSvc = (*MockMapsService)(nil)

func (m *MockMapsService) CommitMaps(ctx context.Context, projectID, currency string, items []domain.MapItemInput, method domain.FundType, actor domain.Actor, opts domain.CommitOptions) (*domain.MapsResult, error) {
	args := m.Called(ctx, projectID, currency, items, method, actor, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MapsResult), args.Error(1)
}

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

var _ portssvc.PeriodSvc = (*MockPeriodService)(nil)

func (m *MockPeriodService) ListPeriods(ctx context.Context, projectID string, limit int, nextToken string) (*portssvc.PeriodPage, error) {
	args := m.Called(ctx, projectID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.PeriodPage), args.Error(1)
}

func (m *MockPeriodService) GetPeriod(ctx context.Context, projectID, periodID string) (*domain.DistributionPeriod, []domain.PeriodLineItem, error) {
	args := m.Called(ctx, projectID, periodID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.DistributionPeriod), args.Get(1).([]domain.PeriodLineItem), args.Error(2)
}

// --- Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	jwtSecret     string
	distributions *MockDistributionService
	maps          *MockMapsService
	periods       *MockPeriodService
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupSuite() {
	s.Require().NoError(dto.RegisterValidators())
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.jwtSecret = "test-secret-key-that-is-long-enough"
	s.distributions = new(MockDistributionService)
	s.maps = new(MockMapsService)
	s.periods = new(MockPeriodService)

	s.router = gin.New()
	projects := s.router.Group("/api/v1/projects/:projectID", middleware.AuthMiddleware(s.jwtSecret))
	handlers.RegisterDistributionRoutes(projects, s.distributions, nil)
	handlers.RegisterMapsRoutes(projects, s.maps, nil)
	handlers.RegisterPeriodRoutes(projects, s.periods)
}

// generateTestToken creates a signed JWT for userID.
func (s *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (s *HandlerTestSuite) do(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		s.Require().NoError(err)
	}
	req, _ := http.NewRequest(method, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.generateTestToken("user-1"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.ErrorResponse {
	var resp dto.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func commitBody() map[string]any {
	return map[string]any{
		"currency": "USD",
		"logIDs":   []string{"log-1", "log-2"},
		"employees": []map[string]any{
			{"employeeID": "e1", "percentage": "60", "bankHeld": "10"},
		},
		"company": map[string]any{"percentage": "40"},
		"note":    "June",
	}
}

func testSelection() *domain.Selection {
	return &domain.Selection{ProjectID: "p1", Currency: "USD", SelectedTotal: dec("500"), SelectedCash: dec("300"), SelectedBank: dec("200")}
}

func (s *HandlerTestSuite) expectSelectAndCompute() *domain.ShareSet {
	shares := &domain.ShareSet{Pool: domain.PoolAmounts{Cash: dec("300"), Bank: dec("200")}}
	s.distributions.On("SelectLogs", mock.Anything, "p1", "USD", []string{"log-1", "log-2"}).Return(testSelection(), nil).Once()
	s.distributions.On("ComputeShares", mock.Anything, testSelection().Amounts(),
		mock.MatchedBy(func(in []domain.ShareInput) bool {
			return len(in) == 1 && in[0].EmployeeID == "e1" && in[0].Percentage.Equal(dec("60")) && in[0].BankHeld.Equal(dec("10"))
		}),
		mock.MatchedBy(func(c domain.ShareInput) bool { return c.Percentage.Equal(dec("40")) }),
	).Return(shares, nil).Once()
	return shares
}

func (s *HandlerTestSuite) TestCommitDistribution_Created() {
	s.distributions.On("ReplayRun", mock.Anything, "p1", "hdr-key").Return(nil, nil).Once()
	shares := s.expectSelectAndCompute()
	result := &domain.DistributionResult{
		RunID:     "run-1",
		ProjectID: "p1",
		Currency:  "USD",
		NegativeShares: []domain.ComputedShare{
			{ShareInput: domain.ShareInput{EmployeeID: "e1"}, Participant: domain.ParticipantEmployee, Total: dec("-5")},
		},
	}
	s.distributions.On("Commit", mock.Anything, "p1", *testSelection(), *shares, domain.Actor{ID: "user-1"},
		mock.MatchedBy(func(o domain.CommitOptions) bool { return o.IdempotencyKey == "hdr-key" && o.Note == "June" }),
	).Return(result, nil).Once()

	body := commitBody()
	body["idempotencyKey"] = "body-key"
	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", body, map[string]string{"Idempotency-Key": "hdr-key"})

	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			RunID    string   `json:"runID"`
			Warnings []string `json:"warnings"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("run-1", resp.Data.RunID)
	s.Equal([]string{"employee e1 nets -5.00"}, resp.Data.Warnings)
	s.distributions.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestCommitDistribution_ReplayReturnsOK() {
	s.distributions.On("ReplayRun", mock.Anything, "p1", "key-9").
		Return(&domain.DistributionResult{RunID: "run-1", ProjectID: "p1", Replayed: true}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", commitBody(), map[string]string{"Idempotency-Key": "key-9"})

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"replayed":true`)
	s.distributions.AssertNotCalled(s.T(), "SelectLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.distributions.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCommitDistribution_KeyOfFailedRunRefused() {
	s.distributions.On("ReplayRun", mock.Anything, "p1", "key-failed").
		Return(nil, fmt.Errorf("%w: run run-3 is PARTIAL", apperrors.ErrRunAlreadyAttempted)).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", commitBody(), map[string]string{"Idempotency-Key": "key-failed"})

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("RUN_ALREADY_ATTEMPTED", s.decodeError(w).Code)
	s.distributions.AssertNotCalled(s.T(), "SelectLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCommitDistribution_StaleSelection() {
	s.distributions.On("SelectLogs", mock.Anything, "p1", "USD", mock.Anything).
		Return(nil, &apperrors.SelectionStaleError{Problems: map[string]string{"log-2": "already distributed"}}).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", commitBody(), nil)

	s.Equal(http.StatusConflict, w.Code)
	resp := s.decodeError(w)
	s.Equal("SELECTION_STALE", resp.Code)
	s.False(resp.Success)
	s.distributions.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCommitDistribution_PartialFailure() {
	s.expectSelectAndCompute()
	stepErr := &apperrors.StepError{
		Step:     string(domain.StepMarkLogsDistributed),
		Severity: apperrors.SeverityPartial,
		Message:  "periods and line items were written; logs were not marked",
		Err:      errors.New("connection reset"),
	}
	s.distributions.On("Commit", mock.Anything, "p1", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, stepErr).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", commitBody(), nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	resp := s.decodeError(w)
	s.Equal("PARTIAL_SUCCESS", resp.Code)
	s.Equal("PARTIAL", resp.Severity)
	s.Equal(stepErr.Message, resp.Message)
}

func (s *HandlerTestSuite) TestCommitDistribution_PartitionIncomplete() {
	s.distributions.On("SelectLogs", mock.Anything, "p1", "USD", mock.Anything).Return(testSelection(), nil).Once()
	s.distributions.On("ComputeShares", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &apperrors.PartitionError{Scope: "distribution", Total: dec("99"), Deviation: dec("-1")}).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", commitBody(), nil)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("PARTITION_INCOMPLETE", s.decodeError(w).Code)
}

func (s *HandlerTestSuite) TestCommitDistribution_InvalidBody() {
	body := commitBody()
	body["employees"] = []map[string]any{{"employeeID": "e1", "percentage": "120"}}

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", body, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_REQUEST", s.decodeError(w).Code)
	s.distributions.AssertNotCalled(s.T(), "SelectLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCommitDistribution_Unauthorized() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/projects/p1/distributions", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.distributions.AssertNotCalled(s.T(), "SelectLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestPreview_ExplicitPool() {
	shares := &domain.ShareSet{PercentageTotal: dec("100")}
	s.distributions.On("ComputeShares", mock.Anything,
		mock.MatchedBy(func(p domain.PoolAmounts) bool { return p.Cash.Equal(dec("10")) && p.Bank.Equal(dec("20")) }),
		mock.Anything, mock.Anything,
	).Return(shares, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions/preview", map[string]any{
		"pool":      map[string]any{"cash": "10", "bank": "20"},
		"employees": []map[string]any{{"employeeID": "e1", "percentage": "100"}},
	}, nil)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.distributions.AssertNotCalled(s.T(), "SelectLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestPreview_RequiresPoolOrSelection() {
	w := s.do(http.MethodPost, "/api/v1/projects/p1/distributions/preview", map[string]any{
		"employees": []map[string]any{{"employeeID": "e1", "percentage": "100"}},
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestListUndistributedLogs() {
	s.distributions.On("ListUndistributedLogs", mock.Anything, "p1", "USD").
		Return([]domain.PercentageLog{{LogID: "log-1"}}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/projects/p1/percentage-logs?currency=USD", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"log-1"`)
}

func (s *HandlerTestSuite) TestCommitMaps_Created() {
	s.maps.On("CommitMaps", mock.Anything, "p1", "", mock.MatchedBy(func(items []domain.MapItemInput) bool {
		return len(items) == 1 && items[0].Name == "Site plan" && items[0].Quantity.Equal(dec("2"))
	}), domain.FundCash, domain.Actor{ID: "user-1"}, mock.Anything).
		Return(&domain.MapsResult{RunID: "run-9", Distribution: domain.MapsDistribution{TotalAmount: dec("200")}}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/projects/p1/maps-distributions", map[string]any{
		"method": "cash",
		"items": []map[string]any{{
			"name":              "Site plan",
			"price":             "100",
			"quantity":          "2",
			"employees":         []map[string]any{{"employeeID": "e1", "percentage": "75"}},
			"companyPercentage": "25",
		}},
	}, nil)

	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	s.maps.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestCommitMaps_RejectsUnknownMethod() {
	w := s.do(http.MethodPost, "/api/v1/projects/p1/maps-distributions", map[string]any{
		"method": "cheque",
		"items":  []map[string]any{{"name": "Site plan", "price": "1", "quantity": "1", "companyPercentage": "100"}},
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.maps.AssertNotCalled(s.T(), "CommitMaps", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
