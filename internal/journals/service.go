package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

const refModule = "journal"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Journal, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Journal, error)
}

// CacheInvalidator lets document writes invalidate cached reports.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service owns the journal lifecycle. Every save rewrites the derived ledger
// transactions for the journal and recalculates the balance of each
// referenced account.
type Service struct {
	repo  RepositoryPort
	cache CacheInvalidator
	now   func() time.Time
}

// NewService constructs the journal service.
func NewService(repo RepositoryPort, cache CacheInvalidator) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get loads a journal by id.
func (s *Service) Get(ctx context.Context, id int64) (Journal, error) {
	return s.repo.Get(ctx, id)
}

// ListInRange returns journals for a period.
func (s *Service) ListInRange(ctx context.Context, from, to time.Time) ([]Journal, error) {
	return s.repo.ListInRange(ctx, from, to)
}

// Create validates and saves a new journal, deriving ledger transactions for
// every account line inside the same database transaction.
func (s *Service) Create(ctx context.Context, j Journal) (Journal, error) {
	if err := j.Validate(); err != nil {
		return Journal{}, err
	}
	if j.DocID == uuid.Nil {
		j.DocID = uuid.New()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertJournal(ctx, j)
		if err != nil {
			return err
		}
		j.ID = id
		if err := tx.InsertItems(ctx, id, j.Items); err != nil {
			return err
		}
		return s.writeDerivedTransactions(ctx, tx, j)
	})
	if err != nil {
		return Journal{}, err
	}
	s.bump(ctx)
	return j, nil
}

// Update rewrites the journal, its items, and all derived transactions.
func (s *Service) Update(ctx context.Context, j Journal) (Journal, error) {
	if j.ID == 0 {
		return Journal{}, errors.New("journals: id required")
	}
	if err := j.Validate(); err != nil {
		return Journal{}, err
	}
	current, err := s.repo.Get(ctx, j.ID)
	if err != nil {
		return Journal{}, err
	}
	j.DocID = current.DocID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateJournal(ctx, j); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, j.ID); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, j.ID, j.Items); err != nil {
			return err
		}
		if err := tx.Ledger().DeleteTransactionsByRef(ctx, refModule, j.DocID.String()); err != nil {
			return err
		}
		if err := s.writeDerivedTransactions(ctx, tx, j); err != nil {
			return err
		}
		// accounts referenced only by the old version still need a recalc
		return s.recalcAccounts(ctx, tx, current.Items)
	})
	if err != nil {
		return Journal{}, err
	}
	s.bump(ctx)
	return j, nil
}

// Delete removes a journal and its derived transactions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Ledger().DeleteTransactionsByRef(ctx, refModule, current.DocID.String()); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteJournal(ctx, id); err != nil {
			return err
		}
		return s.recalcAccounts(ctx, tx, current.Items)
	})
	if err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) writeDerivedTransactions(ctx context.Context, tx TxRepository, j Journal) error {
	for _, item := range j.Items {
		if item.AccountType != ItemAccount {
			continue
		}
		txn := ledger.Transaction{
			AccountID:            item.AccountID,
			Date:                 j.Date,
			Debit:                item.Debit,
			Credit:               item.Credit,
			Type:                 "journal",
			AccountHead:          item.AccountHead,
			RefModule:            refModule,
			RefID:                j.DocID,
			IsCapitalTransaction: j.IsCapitalTransaction,
		}
		if _, err := tx.Ledger().InsertTransaction(ctx, txn); err != nil {
			return err
		}
	}
	return s.recalcAccounts(ctx, tx, j.Items)
}

func (s *Service) recalcAccounts(ctx context.Context, tx TxRepository, items []Item) error {
	seen := map[int64]bool{}
	for _, item := range items {
		if item.AccountType != ItemAccount || seen[item.AccountID] {
			continue
		}
		seen[item.AccountID] = true
		if err := tx.Ledger().RecalculateBalance(ctx, item.AccountID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
