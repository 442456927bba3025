package ledger

import (
	"context"
	"time"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListTransactions(ctx context.Context, accountID int64, asOf time.Time) ([]Transaction, error)
}

// Service answers balance questions over the chart of accounts.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListAccounts exposes the chart of accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// ClosingBalance replays every transaction from account creation up to asOf on
// top of the opening balance. The replay is cumulative, not period scoped:
// balance reports are "as of" figures.
func (s *Service) ClosingBalance(ctx context.Context, accountID int64, asOf time.Time) (float64, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	txns, err := s.repo.ListTransactions(ctx, accountID, asOf)
	if err != nil {
		return 0, err
	}
	balance := acc.OpeningBalance
	for _, t := range txns {
		balance = t.Apply(balance)
	}
	return balance, nil
}

// AccountClosing pairs an account with its replayed closing balance.
type AccountClosing struct {
	Account Account
	Balance float64
}

// ClosingBalances replays every account as of the given date.
func (s *Service) ClosingBalances(ctx context.Context, asOf time.Time) ([]AccountClosing, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	closings := make([]AccountClosing, 0, len(accounts))
	for _, acc := range accounts {
		txns, err := s.repo.ListTransactions(ctx, acc.ID, asOf)
		if err != nil {
			return nil, err
		}
		balance := acc.OpeningBalance
		for _, t := range txns {
			balance = t.Apply(balance)
		}
		closings = append(closings, AccountClosing{Account: acc, Balance: balance})
	}
	return closings, nil
}
