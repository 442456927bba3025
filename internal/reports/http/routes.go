package reporthttp

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/tax-credits", h.handleTaxCredits)
		r.Get("/trade-balances", h.handleTradeBalances)
		r.Get("/profit-loss", h.handleProfitLoss)
		r.Get("/trial-balance", h.handleTrialBalance)
		r.Get("/balance-sheet", h.handleBalanceSheet)
	})
}
