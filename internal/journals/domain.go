package journals

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

// ItemType says what a journal line refers to. Only account lines produce
// ledger transactions; category and tax lines are consumed by the report
// engine directly.
type ItemType string

const (
	ItemAccount         ItemType = "account"
	ItemIncomeCategory  ItemType = "income_category"
	ItemExpenseCategory ItemType = "expense_category"
	ItemTaxRate         ItemType = "tax_rate"
)

// Item is a single debit or credit line of a journal entry.
type Item struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	AccountType ItemType
	AccountHead ledger.AccountHead
	Debit       float64
	Credit      float64
}

// Journal is a manual double-entry document. Saving one rewrites every
// derived ledger transaction that references it.
type Journal struct {
	ID                   int64
	DocID                uuid.UUID
	Date                 time.Time
	Reference            string
	Description          string
	Items                []Item
	IsCapitalTransaction bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// balanceTolerance absorbs float noise when comparing debit and credit totals.
const balanceTolerance = 0.005

var (
	// ErrUnbalanced is returned when debits and credits disagree on a
	// non-capital journal.
	ErrUnbalanced = errors.New("journals: debit total must equal credit total")
	// ErrNoItems indicates an empty journal.
	ErrNoItems = errors.New("journals: at least one item required")
	// ErrNotFound indicates a missing journal.
	ErrNotFound = errors.New("journals: not found")
	// ErrDuplicateReference indicates the reference number is already taken.
	ErrDuplicateReference = errors.New("journals: duplicate reference")
)

// Totals sums the debit and credit sides.
func (j Journal) Totals() (debit, credit float64) {
	for _, item := range j.Items {
		debit += item.Debit
		credit += item.Credit
	}
	return debit, credit
}

// Validate enforces the double-entry rule. Capital transactions (owner
// infusions and withdrawals) are exempt from balancing.
func (j Journal) Validate() error {
	if len(j.Items) == 0 {
		return ErrNoItems
	}
	if j.IsCapitalTransaction {
		return nil
	}
	debit, credit := j.Totals()
	if math.Abs(debit-credit) > balanceTolerance {
		return ErrUnbalanced
	}
	return nil
}

// HasItemType reports whether any line carries the given type. The tax credit
// calculator uses this to attribute tax_rate lines by co-occurrence.
func (j Journal) HasItemType(t ItemType) bool {
	for _, item := range j.Items {
		if item.AccountType == t {
			return true
		}
	}
	return false
}
