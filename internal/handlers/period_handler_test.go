package handlers_test

import (
	"net/http"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/utils/export"
	"github.com/stretchr/testify/mock"
)

func testPeriod() *domain.DistributionPeriod {
	return &domain.DistributionPeriod{
		PeriodID:    "per-1",
		ProjectID:   "p1",
		Currency:    "USD",
		Type:        domain.FundCash,
		DateFrom:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalAmount: dec("300"),
	}
}

func (s *HandlerTestSuite) TestListPeriods() {
	s.periods.On("ListPeriods", mock.Anything, "p1", 5, "tok").
		Return(&portssvc.PeriodPage{Periods: []domain.DistributionPeriod{*testPeriod()}, NextToken: "next"}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/projects/p1/periods?limit=5&nextToken=tok", nil, nil)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"per-1"`)
	s.Contains(w.Body.String(), `"next"`)
}

func (s *HandlerTestSuite) TestListPeriods_LimitTooLarge() {
	w := s.do(http.MethodGet, "/api/v1/projects/p1/periods?limit=1000", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestGetPeriod_NotFound() {
	s.periods.On("GetPeriod", mock.Anything, "p1", "missing").Return(nil, nil, apperrors.ErrNotFound).Once()

	w := s.do(http.MethodGet, "/api/v1/projects/p1/periods/missing", nil, nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", s.decodeError(w).Code)
}

func (s *HandlerTestSuite) TestExportPeriod() {
	items := []domain.PeriodLineItem{
		{LineItemID: "li-1", PeriodID: "per-1", Participant: domain.ParticipantEmployee, EmployeeID: "e1", Percentage: dec("60"), CashAmount: dec("180"), Total: dec("180")},
	}
	s.periods.On("GetPeriod", mock.Anything, "p1", "per-1").Return(testPeriod(), items, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/projects/p1/periods/per-1/export", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(export.XLSXContentType, w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), export.PeriodFileName(*testPeriod()))
	s.NotZero(w.Body.Len())
}
