package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
	"github.com/ayurbooks/ayurbooks/internal/shared"
	"github.com/ayurbooks/ayurbooks/internal/stock"
)

// AggregatePort exposes the document aggregate reads the reports fold over.
type AggregatePort interface {
	TaxTotals(ctx context.Context, from, to time.Time) (TaxTotals, error)
	JournalTaxEntries(ctx context.Context, from, to time.Time) ([]JournalTaxEntry, error)
	SupplierBalances(ctx context.Context) ([]float64, error)
	SaleDues(ctx context.Context) ([]SaleDue, error)
	UnpaidIncomeTotal(ctx context.Context) (float64, error)
	ExpenseDuesTotal(ctx context.Context) (float64, error)
	NetSalesWithoutTax(ctx context.Context, from, to time.Time) (float64, error)
	PurchasesWithoutTax(ctx context.Context, from, to time.Time) (float64, error)
	StandaloneGRNValue(ctx context.Context, from, to time.Time) (float64, error)
	PurchaseReturnsWithoutTax(ctx context.Context, from, to time.Time) (float64, error)
	CategoryRecords(ctx context.Context, from, to time.Time) ([]CategoryRecord, error)
	PackingCharges(ctx context.Context, from, to time.Time) (float64, error)
	NetShippingIncome(ctx context.Context, from, to time.Time) (float64, error)
	ServiceChargeIncome(ctx context.Context, from, to time.Time) (float64, error)
	PendingSaleLiability(ctx context.Context) (float64, error)
	PendingRefunds(ctx context.Context) (float64, error)
}

// StockValuer values inventory for a day.
type StockValuer interface {
	StockValueForDate(ctx context.Context, day time.Time, kind stock.ValuationKind) (float64, error)
}

// LedgerPort replays account balances as of a date.
type LedgerPort interface {
	ClosingBalances(ctx context.Context, asOf time.Time) ([]ledger.AccountClosing, error)
}

// Service coordinates the report calculators with the cache layer. The
// sub-reads of one report fan out concurrently; a failed read degrades its
// aggregate to zero and surfaces a warning instead of failing the report.
type Service struct {
	logger *slog.Logger
	repo   AggregatePort
	stock  StockValuer
	ledger LedgerPort
	cache  *Cache
}

// NewService wires the aggregate repository, stock valuer, ledger, and cache.
func NewService(logger *slog.Logger, repo AggregatePort, stockValuer StockValuer, ledgerPort LedgerPort, cache *Cache) *Service {
	return &Service{logger: logger, repo: repo, stock: stockValuer, ledger: ledgerPort, cache: cache}
}

// Cache exposes the underlying cache so document services can bump it.
func (s *Service) Cache() *Cache {
	return s.cache
}

// warningSink collects degraded-read notices across concurrent loaders.
type warningSink struct {
	mu       sync.Mutex
	warnings []string
}

func (w *warningSink) add(logger *slog.Logger, name string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnings = append(w.warnings, fmt.Sprintf("%s unavailable, treated as zero", name))
	if logger != nil {
		logger.Warn("report read degraded", slog.String("read", name), slog.Any("error", err))
	}
}

func (w *warningSink) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.warnings
}

func (s *Service) fetch(ctx context.Context, forceRefresh bool, dest interface{}, loader func(context.Context) (interface{}, error), keyParts ...string) error {
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return err
	}
	if forceRefresh {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		if err := s.cache.StoreJSON(ctx, key, value); err != nil {
			return err
		}
		return s.cache.FetchJSON(ctx, key, dest, loader)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

// TaxCredits computes the netted input/output tax report for a range.
func (s *Service) TaxCredits(ctx context.Context, rng shared.DateRange, forceRefresh bool) (TaxCreditReport, error) {
	var report TaxCreditReport
	err := s.fetch(ctx, forceRefresh, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildTaxCredits(ctx, rng)
	}, "reports", "tax", rng.Key())
	return report, err
}

func (s *Service) buildTaxCredits(ctx context.Context, rng shared.DateRange) (TaxCreditReport, error) {
	var (
		totals  TaxTotals
		entries []JournalTaxEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.repo.TaxTotals(gctx, rng.From, rng.To)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.repo.JournalTaxEntries(gctx, rng.From, rng.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return TaxCreditReport{}, fmt.Errorf("reports: tax credits: %w", err)
	}
	return CalculateTaxCredits(rng.From, rng.To, totals, entries), nil
}

// TradeBalances derives the creditor/debtor buckets from current documents.
func (s *Service) TradeBalances(ctx context.Context, forceRefresh bool) (TradeBalances, error) {
	var report TradeBalances
	err := s.fetch(ctx, forceRefresh, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildTradeBalances(ctx)
	}, "reports", "trade")
	return report, err
}

func (s *Service) buildTradeBalances(ctx context.Context) (TradeBalances, error) {
	var (
		balances      []float64
		dues          []SaleDue
		unpaidIncomes float64
		expenseDues   float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balances, err = s.repo.SupplierBalances(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		dues, err = s.repo.SaleDues(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unpaidIncomes, err = s.repo.UnpaidIncomeTotal(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenseDues, err = s.repo.ExpenseDuesTotal(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TradeBalances{}, fmt.Errorf("reports: trade balances: %w", err)
	}
	return ComputeTradeBalances(balances, dues, unpaidIncomes, expenseDues), nil
}

// ProfitLoss builds the trading-account statement for a range.
func (s *Service) ProfitLoss(ctx context.Context, rng shared.DateRange, granularity Granularity, forceRefresh bool) (ProfitLossReport, error) {
	if granularity != GranularityBasic && granularity != GranularityDetailed {
		granularity = GranularityDetailed
	}
	var report ProfitLossReport
	err := s.fetch(ctx, forceRefresh, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildProfitLoss(ctx, rng, granularity)
	}, "reports", "pl", string(granularity), rng.Key())
	return report, err
}

func (s *Service) buildProfitLoss(ctx context.Context, rng shared.DateRange, granularity Granularity) (ProfitLossReport, error) {
	var (
		inputs ProfitLossInputs
		sink   warningSink
	)
	g, gctx := errgroup.WithContext(ctx)
	degrade := func(name string, dest *float64, load func() (float64, error)) func() error {
		return func() error {
			value, err := load()
			if err != nil {
				sink.add(s.logger, name, err)
				value = 0
			}
			*dest = value
			return nil
		}
	}

	g.Go(degrade("opening stock", &inputs.OpeningStock, func() (float64, error) {
		return s.stock.StockValueForDate(gctx, rng.From, stock.ValuationOpening)
	}))
	g.Go(degrade("closing stock", &inputs.ClosingStock, func() (float64, error) {
		return s.stock.StockValueForDate(gctx, rng.To, stock.ValuationClosing)
	}))
	g.Go(degrade("net sales", &inputs.SalesWithoutTax, func() (float64, error) {
		return s.repo.NetSalesWithoutTax(gctx, rng.From, rng.To)
	}))
	g.Go(degrade("purchases", &inputs.PurchasesWithoutTax, func() (float64, error) {
		return s.repo.PurchasesWithoutTax(gctx, rng.From, rng.To)
	}))
	g.Go(degrade("standalone GRN value", &inputs.StandaloneGRNValue, func() (float64, error) {
		return s.repo.StandaloneGRNValue(gctx, rng.From, rng.To)
	}))
	g.Go(degrade("purchase returns", &inputs.PurchaseReturnsWithoutTax, func() (float64, error) {
		return s.repo.PurchaseReturnsWithoutTax(gctx, rng.From, rng.To)
	}))
	g.Go(func() error {
		records, err := s.repo.CategoryRecords(gctx, rng.From, rng.To)
		if err != nil {
			sink.add(s.logger, "category records", err)
			records = nil
		}
		inputs.Categories = records
		return nil
	})
	_ = g.Wait()
	inputs.Warnings = sink.list()
	return BuildProfitLoss(rng.From, rng.To, inputs, granularity), nil
}

// TrialBalance replays every account as of the range end and injects the
// synthetic document-derived rows.
func (s *Service) TrialBalance(ctx context.Context, rng shared.DateRange, forceRefresh bool) (TrialBalanceReport, error) {
	var report TrialBalanceReport
	err := s.fetch(ctx, forceRefresh, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildTrialBalance(ctx, rng)
	}, "reports", "tb", rng.Key())
	return report, err
}

func (s *Service) buildTrialBalance(ctx context.Context, rng shared.DateRange) (TrialBalanceReport, error) {
	inputs := TrialBalanceInputs{}
	var sink warningSink

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		closings, err := s.ledger.ClosingBalances(gctx, rng.To)
		if err != nil {
			return fmt.Errorf("reports: trial balance accounts: %w", err)
		}
		inputs.Accounts = closings
		return nil
	})
	g.Go(func() error {
		tax, err := s.buildTaxCredits(gctx, rng)
		if err != nil {
			sink.add(s.logger, "tax credits", err)
			tax = TaxCreditReport{}
		}
		inputs.Tax = tax
		return nil
	})
	g.Go(func() error {
		trade, err := s.buildTradeBalances(gctx)
		if err != nil {
			sink.add(s.logger, "trade balances", err)
			trade = TradeBalances{}
		}
		inputs.Trade = trade
		return nil
	})
	g.Go(func() error {
		pl, err := s.buildProfitLoss(gctx, rng, GranularityDetailed)
		if err != nil {
			sink.add(s.logger, "profit and loss", err)
			pl = ProfitLossReport{}
		}
		inputs.ProfitLoss = pl
		return nil
	})
	g.Go(func() error {
		packing, err := s.repo.PackingCharges(gctx, rng.From, rng.To)
		if err != nil {
			sink.add(s.logger, "packing charges", err)
			packing = 0
		}
		inputs.PackingCharges = packing
		return nil
	})
	g.Go(func() error {
		shipping, err := s.repo.NetShippingIncome(gctx, rng.From, rng.To)
		if err != nil {
			sink.add(s.logger, "net shipping income", err)
			shipping = 0
		}
		inputs.NetShippingIncome = shipping
		return nil
	})
	if err := g.Wait(); err != nil {
		return TrialBalanceReport{}, err
	}
	inputs.Warnings = append(inputs.Warnings, sink.list()...)
	inputs.Warnings = append(inputs.Warnings, inputs.ProfitLoss.Warnings...)
	return BuildTrialBalance(rng.From, rng.To, inputs), nil
}

// BalanceSheet composes the as-of statement for a range.
func (s *Service) BalanceSheet(ctx context.Context, rng shared.DateRange, forceRefresh bool) (BalanceSheetReport, error) {
	var report BalanceSheetReport
	err := s.fetch(ctx, forceRefresh, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildBalanceSheet(ctx, rng)
	}, "reports", "bs", rng.Key())
	return report, err
}

func (s *Service) buildBalanceSheet(ctx context.Context, rng shared.DateRange) (BalanceSheetReport, error) {
	inputs := BalanceSheetInputs{}
	var sink warningSink

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		closings, err := s.ledger.ClosingBalances(gctx, rng.To)
		if err != nil {
			return fmt.Errorf("reports: balance sheet accounts: %w", err)
		}
		inputs.Accounts = closings
		return nil
	})
	g.Go(func() error {
		trade, err := s.buildTradeBalances(gctx)
		if err != nil {
			sink.add(s.logger, "trade balances", err)
			trade = TradeBalances{}
		}
		inputs.Trade = trade
		return nil
	})
	g.Go(func() error {
		tax, err := s.buildTaxCredits(gctx, rng)
		if err != nil {
			sink.add(s.logger, "tax credits", err)
			tax = TaxCreditReport{}
		}
		inputs.Tax = tax
		return nil
	})
	g.Go(func() error {
		pl, err := s.buildProfitLoss(gctx, rng, GranularityDetailed)
		if err != nil {
			sink.add(s.logger, "profit and loss", err)
			pl = ProfitLossReport{}
		}
		inputs.ProfitLoss = pl
		return nil
	})
	g.Go(func() error {
		value, err := s.stock.StockValueForDate(gctx, rng.To, stock.ValuationClosing)
		if err != nil {
			sink.add(s.logger, "closing stock", err)
			value = 0
		}
		inputs.ClosingStock = value
		return nil
	})
	g.Go(func() error {
		pending, err := s.repo.PendingSaleLiability(gctx)
		if err != nil {
			sink.add(s.logger, "pending sale receipts", err)
			pending = 0
		}
		inputs.PendingSaleLiability = pending
		return nil
	})
	g.Go(func() error {
		refunds, err := s.repo.PendingRefunds(gctx)
		if err != nil {
			sink.add(s.logger, "pending refunds", err)
			refunds = 0
		}
		inputs.PendingRefunds = refunds
		return nil
	})
	g.Go(func() error {
		shipping, err := s.repo.NetShippingIncome(gctx, rng.From, rng.To)
		if err != nil {
			sink.add(s.logger, "net shipping income", err)
			shipping = 0
		}
		inputs.NetShippingIncome = shipping
		return nil
	})
	g.Go(func() error {
		service, err := s.repo.ServiceChargeIncome(gctx, rng.From, rng.To)
		if err != nil {
			sink.add(s.logger, "service charge income", err)
			service = 0
		}
		inputs.ServiceChargeIncome = service
		return nil
	})
	if err := g.Wait(); err != nil {
		return BalanceSheetReport{}, err
	}
	inputs.Warnings = append(inputs.Warnings, sink.list()...)
	inputs.Warnings = append(inputs.Warnings, inputs.ProfitLoss.Warnings...)
	return BuildBalanceSheet(rng.From, rng.To, inputs), nil
}
