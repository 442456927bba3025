package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	accounts []Account
	txns     map[int64][]Transaction
}

func (f *fakeRepo) ListAccounts(ctx context.Context) ([]Account, error) {
	return append([]Account(nil), f.accounts...), nil
}

func (f *fakeRepo) GetAccount(ctx context.Context, id int64) (Account, error) {
	for _, acc := range f.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (f *fakeRepo) ListTransactions(ctx context.Context, accountID int64, asOf time.Time) ([]Transaction, error) {
	var out []Transaction
	for _, t := range f.txns[accountID] {
		if !t.Date.After(asOf) {
			out = append(out, t)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestClosingBalanceReplaysHistory(t *testing.T) {
	repo := &fakeRepo{
		accounts: []Account{{ID: 1, OpeningBalance: 100}},
		txns: map[int64][]Transaction{1: {
			{AccountID: 1, Date: day(1), Debit: 50},
			{AccountID: 1, Date: day(5), Credit: 30},
			{AccountID: 1, Date: day(20), Debit: 10},
		}},
	}
	svc := NewService(repo)

	bal, err := svc.ClosingBalance(context.Background(), 1, day(10))
	require.NoError(t, err)
	assert.InDelta(t, 120.0, bal, 1e-9)

	bal, err = svc.ClosingBalance(context.Background(), 1, day(31))
	require.NoError(t, err)
	assert.InDelta(t, 130.0, bal, 1e-9)
}

func TestClosingBalanceSumsCapitalTransactions(t *testing.T) {
	repo := &fakeRepo{
		accounts: []Account{{ID: 7, OpeningBalance: 0}},
		txns: map[int64][]Transaction{7: {
			{AccountID: 7, Date: day(2), Debit: 1000, Credit: 200, IsCapitalTransaction: true},
			{AccountID: 7, Date: day(3), Debit: 100, Credit: 40},
		}},
	}
	svc := NewService(repo)

	bal, err := svc.ClosingBalance(context.Background(), 7, day(31))
	require.NoError(t, err)
	// capital rows add debit+credit, normal rows net debit-credit
	assert.InDelta(t, 1260.0, bal, 1e-9)
}

func TestClassifyBalance(t *testing.T) {
	cases := []struct {
		name      string
		principal PrincipalType
		balance   float64
		want      ClassifiedBalance
	}{
		{"asset positive", PrincipalAsset, 500, ClassifiedBalance{Debit: 500}},
		{"asset negative", PrincipalAsset, -200, ClassifiedBalance{Credit: 200}},
		{"expense positive", PrincipalExpense, 75, ClassifiedBalance{Debit: 75}},
		{"liability positive", PrincipalLiability, 900, ClassifiedBalance{Credit: 900}},
		{"liability overpaid stays credit", PrincipalLiability, -500, ClassifiedBalance{Debit: 0, Credit: 500}},
		{"equity positive", PrincipalEquity, 300, ClassifiedBalance{Credit: 300}},
		{"income negative", PrincipalIncome, -80, ClassifiedBalance{Debit: 80}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyBalance(tc.principal, tc.balance))
		})
	}
}

func TestAccountHeadPrincipal(t *testing.T) {
	assert.Equal(t, PrincipalAsset, AccountHead{Group: "Asset", Value: "Current Asset"}.Principal())
	assert.Equal(t, PrincipalLiability, AccountHead{Group: "Liabilities", Value: "Sundry Creditors"}.Principal())
	assert.Equal(t, PrincipalEquity, AccountHead{Group: "Equity", Value: "Owner Capital"}.Principal())
}
