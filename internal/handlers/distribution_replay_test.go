package handlers_test

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/core/services"
	"github.com/SscSPs/construction_ledger/internal/handlers"
	"github.com/SscSPs/construction_ledger/internal/middleware"
	"github.com/SscSPs/construction_ledger/internal/repositories/memory"
	"github.com/gin-gonic/gin"
)

func seededLedger() *memory.Store {
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SeedProject(domain.Project{ProjectID: "p1", Name: "Tower A", Currency: "USD"})
	store.SeedPool(domain.PercentagePool{PoolID: "pool-cash", ProjectID: "p1", Currency: "USD", Type: domain.FundCash, Balance: dec("600")})
	store.SeedPool(domain.PercentagePool{PoolID: "pool-bank", ProjectID: "p1", Currency: "USD", Type: domain.FundBank, Balance: dec("400")})
	store.SeedLogs(
		domain.PercentageLog{LogID: "log-1", ProjectID: "p1", Currency: "USD", Amount: dec("300"), CreatedAt: created},
		domain.PercentageLog{LogID: "log-2", ProjectID: "p1", Currency: "USD", Amount: dec("200"), CreatedAt: created.Add(time.Hour)},
	)
	store.SeedAccounts(
		domain.Account{AccountID: "acc-e1", Owner: domain.OwnerEmployee, EmployeeID: "e1", Currency: "USD"},
		domain.Account{AccountID: "acc-main", Owner: domain.OwnerCompany, Kind: domain.CompanyMain, Currency: "USD"},
	)
	return store
}

func (s *HandlerTestSuite) TestCommitDistribution_RetryWithKeyReplaysOverLedger() {
	store := seededLedger()
	facade := services.NewDistributionFacade(store, services.WithRunJournal(store))
	s.router = gin.New()
	projects := s.router.Group("/api/v1/projects/:projectID", middleware.AuthMiddleware(s.jwtSecret))
	handlers.RegisterDistributionRoutes(projects, facade, nil)

	body := commitBody()
	body["employees"] = []map[string]any{{"employeeID": "e1", "percentage": "60"}}
	headers := map[string]string{"Idempotency-Key": "retry-1"}

	type commitResponse struct {
		Data struct {
			RunID     string                      `json:"runID"`
			Periods   []domain.DistributionPeriod `json:"periods"`
			LineItems []domain.PeriodLineItem     `json:"lineItems"`
			Replayed  bool                        `json:"replayed"`
		} `json:"data"`
	}

	first := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", body, headers)
	s.Require().Equal(http.StatusCreated, first.Code, first.Body.String())
	var created commitResponse
	s.Require().NoError(json.Unmarshal(first.Body.Bytes(), &created))
	s.False(created.Data.Replayed)

	again := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", body, headers)
	s.Require().Equal(http.StatusOK, again.Code, again.Body.String())
	var replayed commitResponse
	s.Require().NoError(json.Unmarshal(again.Body.Bytes(), &replayed))
	s.True(replayed.Data.Replayed)
	s.Equal(created.Data.RunID, replayed.Data.RunID)
	s.Len(replayed.Data.Periods, len(created.Data.Periods))
	s.Len(replayed.Data.LineItems, len(created.Data.LineItems))

	e1, _ := store.Account("acc-e1")
	s.True(dec("180").Equal(e1.CashBalance), "credited once, got %s", e1.CashBalance)
	s.Equal(2, store.PeriodCount())

	// without the key the logs are already consumed
	stale := s.do(http.MethodPost, "/api/v1/projects/p1/distributions", body, nil)
	s.Equal(http.StatusConflict, stale.Code)
	s.Equal("SELECTION_STALE", s.decodeError(stale).Code)
}
