package reporthttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ayurbooks/ayurbooks/internal/platform/httpx"
	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

const requestTimeout = 30 * time.Second

// ReportService is the report generation contract used by the handler.
type ReportService interface {
	TaxCredits(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TaxCreditReport, error)
	TradeBalances(ctx context.Context, forceRefresh bool) (reports.TradeBalances, error)
	ProfitLoss(ctx context.Context, rng shared.DateRange, granularity reports.Granularity, forceRefresh bool) (reports.ProfitLossReport, error)
	TrialBalance(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TrialBalanceReport, error)
	BalanceSheet(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.BalanceSheetReport, error)
}

// PDFService renders report HTML to PDF bytes.
type PDFService interface {
	RenderHTML(ctx context.Context, filename, html string) ([]byte, error)
}

// Handler serves the financial report endpoints. Concurrent requests for the
// same report collapse onto one computation, so a manual refresh can never
// overwrite a newer result with a stale one.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	pdf     PDFService
	group   singleflight.Group
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, pdf PDFService) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf}
}

// parseRange reads from/to query parameters in either accepted date format.
func parseRange(r *http.Request) (shared.DateRange, error) {
	return shared.NewDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
}

func forceRefresh(r *http.Request) bool {
	return r.URL.Query().Get("forceRefresh") == "true"
}

func exportFormat(r *http.Request) string {
	return r.URL.Query().Get("format")
}

func (h *Handler) handleTaxCredits(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := fmt.Sprintf("tax:%s:%t", rng.Key(), forceRefresh(r))
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.TaxCredits(ctx, rng, forceRefresh(r))
	})
	if err != nil {
		h.respondServerError(w, "tax credits", err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

func (h *Handler) handleTradeBalances(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := fmt.Sprintf("trade:%t", forceRefresh(r))
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.TradeBalances(ctx, forceRefresh(r))
	})
	if err != nil {
		h.respondServerError(w, "trade balances", err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	granularity := reports.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = reports.GranularityDetailed
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := fmt.Sprintf("pl:%s:%s:%t", granularity, rng.Key(), forceRefresh(r))
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.ProfitLoss(ctx, rng, granularity, forceRefresh(r))
	})
	if err != nil {
		h.respondServerError(w, "profit and loss", err)
		return
	}
	report := value.(reports.ProfitLossReport)

	switch exportFormat(r) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="profit-loss.csv"`)
		if err := WriteProfitLossCSV(w, report); err != nil {
			h.logger.Error("profit loss csv", slog.Any("error", err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="profit-loss.xlsx"`)
		if err := WriteProfitLossXLSX(w, report); err != nil {
			h.logger.Error("profit loss xlsx", slog.Any("error", err))
		}
	case "pdf":
		h.respondPDF(ctx, w, "profit-loss.pdf", profitLossHTML(report))
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := fmt.Sprintf("tb:%s:%t", rng.Key(), forceRefresh(r))
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.TrialBalance(ctx, rng, forceRefresh(r))
	})
	if err != nil {
		h.respondServerError(w, "trial balance", err)
		return
	}
	report := value.(reports.TrialBalanceReport)

	switch exportFormat(r) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trial-balance.csv"`)
		if err := WriteTrialBalanceCSV(w, report); err != nil {
			h.logger.Error("trial balance csv", slog.Any("error", err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="trial-balance.xlsx"`)
		if err := WriteTrialBalanceXLSX(w, report); err != nil {
			h.logger.Error("trial balance xlsx", slog.Any("error", err))
		}
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := fmt.Sprintf("bs:%s:%t", rng.Key(), forceRefresh(r))
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.BalanceSheet(ctx, rng, forceRefresh(r))
	})
	if err != nil {
		h.respondServerError(w, "balance sheet", err)
		return
	}
	report := value.(reports.BalanceSheetReport)

	switch exportFormat(r) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="balance-sheet.csv"`)
		if err := WriteBalanceSheetCSV(w, report); err != nil {
			h.logger.Error("balance sheet csv", slog.Any("error", err))
		}
	case "pdf":
		h.respondPDF(ctx, w, "balance-sheet.pdf", balanceSheetHTML(report))
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) respondPDF(ctx context.Context, w http.ResponseWriter, filename, html string) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusNotImplemented, "PDF Export Unavailable", "no renderer configured")
		return
	}
	data, err := h.pdf.RenderHTML(ctx, filename, html)
	if err != nil {
		h.respondServerError(w, "render pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) respondServerError(w http.ResponseWriter, action string, err error) {
	h.logger.Error("report request failed", slog.String("action", action), slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Report Generation Failed", "unable to generate report")
}
