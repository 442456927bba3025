package journals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

type fakeLedgerTx struct {
	inserted []ledger.Transaction
	deleted  []string
	recalced []int64
}

func (f *fakeLedgerTx) InsertTransaction(ctx context.Context, txn ledger.Transaction) (int64, error) {
	f.inserted = append(f.inserted, txn)
	return int64(len(f.inserted)), nil
}

func (f *fakeLedgerTx) DeleteTransactionsByRef(ctx context.Context, refModule, refID string) error {
	f.deleted = append(f.deleted, refModule+":"+refID)
	return nil
}

func (f *fakeLedgerTx) RecalculateBalance(ctx context.Context, accountID int64) error {
	f.recalced = append(f.recalced, accountID)
	return nil
}

type fakeTxRepo struct {
	lg       *fakeLedgerTx
	journals map[int64]Journal
	nextID   int64
}

func (f *fakeTxRepo) InsertJournal(ctx context.Context, j Journal) (int64, error) {
	f.nextID++
	j.ID = f.nextID
	f.journals[j.ID] = j
	return j.ID, nil
}

func (f *fakeTxRepo) UpdateJournal(ctx context.Context, j Journal) error {
	if _, ok := f.journals[j.ID]; !ok {
		return ErrNotFound
	}
	f.journals[j.ID] = j
	return nil
}

func (f *fakeTxRepo) DeleteJournal(ctx context.Context, id int64) error {
	delete(f.journals, id)
	return nil
}

func (f *fakeTxRepo) InsertItems(ctx context.Context, journalID int64, items []Item) error {
	j := f.journals[journalID]
	j.Items = append([]Item(nil), items...)
	f.journals[journalID] = j
	return nil
}

func (f *fakeTxRepo) DeleteItems(ctx context.Context, journalID int64) error {
	j := f.journals[journalID]
	j.Items = nil
	f.journals[journalID] = j
	return nil
}

func (f *fakeTxRepo) Ledger() ledger.TxRepository { return f.lg }

type fakeRepo struct {
	tx *fakeTxRepo
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tx: &fakeTxRepo{lg: &fakeLedgerTx{}, journals: map[int64]Journal{}}}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f.tx)
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Journal, error) {
	j, ok := f.tx.journals[id]
	if !ok {
		return Journal{}, ErrNotFound
	}
	return j, nil
}

func (f *fakeRepo) ListInRange(ctx context.Context, from, to time.Time) ([]Journal, error) {
	var out []Journal
	for _, j := range f.tx.journals {
		if !j.Date.Before(from) && !j.Date.After(to) {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeBumper struct{ bumps int }

func (f *fakeBumper) Bump(ctx context.Context) error {
	f.bumps++
	return nil
}

func balancedJournal() Journal {
	return Journal{
		Date:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Reference: "JRN-42",
		Items: []Item{
			{AccountID: 1, AccountType: ItemAccount, Debit: 1180},
			{AccountID: 0, AccountType: ItemExpenseCategory, Credit: 1000},
			{AccountID: 0, AccountType: ItemTaxRate, Credit: 180},
		},
	}
}

func TestCreateRejectsUnbalancedJournal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	j := balancedJournal()
	j.Items[0].Debit = 900
	_, err := svc.Create(context.Background(), j)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.Empty(t, repo.tx.journals)
}

func TestCreateAllowsUnbalancedCapitalJournal(t *testing.T) {
	repo := newFakeRepo()
	bumper := &fakeBumper{}
	svc := NewService(repo, bumper)

	j := Journal{
		Date:                 time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IsCapitalTransaction: true,
		Items:                []Item{{AccountID: 3, AccountType: ItemAccount, Debit: 50000}},
	}
	created, err := svc.Create(context.Background(), j)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.Len(t, repo.tx.lg.inserted, 1)
	assert.True(t, repo.tx.lg.inserted[0].IsCapitalTransaction)
	assert.Equal(t, 1, bumper.bumps)
}

func TestCreateDerivesTransactionsForAccountItemsOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedJournal())
	require.NoError(t, err)
	require.Len(t, repo.tx.lg.inserted, 1)
	txn := repo.tx.lg.inserted[0]
	assert.Equal(t, int64(1), txn.AccountID)
	assert.Equal(t, "journal", txn.RefModule)
	assert.Equal(t, created.DocID, txn.RefID)
	assert.Equal(t, []int64{1}, repo.tx.lg.recalced)
}

func TestUpdateRewritesDerivedTransactions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedJournal())
	require.NoError(t, err)

	updated := created
	updated.Items = []Item{
		{AccountID: 2, AccountType: ItemAccount, Debit: 500},
		{AccountID: 0, AccountType: ItemIncomeCategory, Credit: 500},
	}
	_, err = svc.Update(context.Background(), updated)
	require.NoError(t, err)

	assert.Contains(t, repo.tx.lg.deleted, "journal:"+created.DocID.String())
	// last insert belongs to the rewritten version
	last := repo.tx.lg.inserted[len(repo.tx.lg.inserted)-1]
	assert.Equal(t, int64(2), last.AccountID)
	// both old and new referenced accounts recalculated
	assert.Contains(t, repo.tx.lg.recalced, int64(1))
	assert.Contains(t, repo.tx.lg.recalced, int64(2))
}

func TestDeleteRemovesDerivedTransactions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedJournal())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Contains(t, repo.tx.lg.deleted, "journal:"+created.DocID.String())
	assert.Empty(t, repo.tx.journals)
}

func TestValidateToleratesFloatNoise(t *testing.T) {
	j := Journal{Items: []Item{
		{AccountType: ItemAccount, Debit: 0.1 + 0.2},
		{AccountType: ItemAccount, Credit: 0.3},
	}}
	assert.NoError(t, j.Validate())
}
