package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayurbooks/ayurbooks/internal/platform/httpx"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

// Handler exposes read endpoints over the chart of accounts.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers account endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}/closing-balance", h.HandleClosingBalance)
	})
}

// HandleList returns the chart of accounts with current balances.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

// HandleClosingBalance replays one account's balance as of ?asOf=.
func (h *Handler) HandleClosingBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	asOf, err := shared.ParseDate(r.URL.Query().Get("asOf"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "asOf: "+err.Error())
		return
	}
	balance, err := h.service.ClosingBalance(r.Context(), id, asOf)
	if errors.Is(err, ErrAccountNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("closing balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"accountId": id,
		"asOf":      asOf.Format("2006-01-02"),
		"balance":   balance,
	})
}
