package reporthttp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

type stubService struct {
	taxRanges []shared.DateRange
}

func (s *stubService) TaxCredits(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TaxCreditReport, error) {
	s.taxRanges = append(s.taxRanges, rng)
	return reports.TaxCreditReport{From: rng.From, To: rng.To}, nil
}

func (s *stubService) TradeBalances(ctx context.Context, forceRefresh bool) (reports.TradeBalances, error) {
	return reports.TradeBalances{}, nil
}

func (s *stubService) ProfitLoss(ctx context.Context, rng shared.DateRange, granularity reports.Granularity, forceRefresh bool) (reports.ProfitLossReport, error) {
	return reports.ProfitLossReport{Granularity: granularity}, nil
}

func (s *stubService) TrialBalance(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TrialBalanceReport, error) {
	return reports.TrialBalanceReport{}, nil
}

func (s *stubService) BalanceSheet(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.BalanceSheetReport, error) {
	return reports.BalanceSheetReport{}, nil
}

func newTestRouter(service ReportService) http.Handler {
	h := NewHandler(slog.New(slog.DiscardHandler), service, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestTaxCreditsAcceptsBothDateFormats(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service)

	for _, target := range []string{
		"/reports/tax-credits?from=2024-04-01&to=2024-04-30",
		"/reports/tax-credits?from=01-04-2024&to=30-04-2024",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	require.Len(t, service.taxRanges, 2)
	assert.Equal(t, service.taxRanges[0], service.taxRanges[1])
}

func TestTaxCreditsRejectsInvertedRange(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/tax-credits?from=2024-05-01&to=2024-04-01", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.taxRanges)
}
