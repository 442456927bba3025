package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PrincipalType is the high level nature of an account, driving how its
// closing balance lands in the debit or credit column of reports.
type PrincipalType string

const (
	PrincipalAsset     PrincipalType = "ASSET"
	PrincipalLiability PrincipalType = "LIABILITY"
	PrincipalEquity    PrincipalType = "EQUITY"
	PrincipalIncome    PrincipalType = "INCOME"
	PrincipalExpense   PrincipalType = "EXPENSE"
)

// AccountHead places an account inside the fixed chart-of-accounts taxonomy.
type AccountHead struct {
	Group string `json:"group"`
	Value string `json:"value"`
}

// Principal maps the head group onto a principal type. Income and expense
// category records are typed directly and never pass through here.
func (h AccountHead) Principal() PrincipalType {
	switch h.Group {
	case "Asset":
		return PrincipalAsset
	case "Equity":
		return PrincipalEquity
	case "Liabilities":
		return PrincipalLiability
	case "Income":
		return PrincipalIncome
	case "Expense":
		return PrincipalExpense
	default:
		return PrincipalAsset
	}
}

// Account is a chart-of-accounts ledger account.
type Account struct {
	ID             int64
	Name           string
	AccountNumber  string
	Head           AccountHead
	OpeningBalance float64
	CurrentBalance float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction is an immutable ledger movement. Corrections are recorded as
// new offsetting transactions, never as updates.
type Transaction struct {
	ID                   int64
	AccountID            int64
	Date                 time.Time
	Debit                float64
	Credit               float64
	Type                 string
	AccountHead          AccountHead
	RefModule            string
	RefID                uuid.UUID
	IsCapitalTransaction bool
	CreatedAt            time.Time
}

// Apply folds the transaction into a running balance. Capital infusions and
// withdrawals sum both sides instead of netting them; that is a business rule
// for owner capital, not an accident.
func (t Transaction) Apply(balance float64) float64 {
	if t.IsCapitalTransaction {
		return balance + t.Debit + t.Credit
	}
	return balance + t.Debit - t.Credit
}

// ClassifiedBalance is a closing balance split into report columns.
type ClassifiedBalance struct {
	Debit  float64
	Credit float64
}

// ClassifyBalance places a closing balance into the debit or credit column by
// principal type. Liabilities are always shown credit-positive as the absolute
// value; an overpaid liability is folded in rather than surfaced on the debit
// side.
func ClassifyBalance(principal PrincipalType, balance float64) ClassifiedBalance {
	switch principal {
	case PrincipalAsset, PrincipalExpense:
		if balance >= 0 {
			return ClassifiedBalance{Debit: balance}
		}
		return ClassifiedBalance{Credit: -balance}
	case PrincipalLiability:
		if balance < 0 {
			return ClassifiedBalance{Credit: -balance}
		}
		return ClassifiedBalance{Credit: balance}
	default: // Equity, Income
		if balance >= 0 {
			return ClassifiedBalance{Credit: balance}
		}
		return ClassifiedBalance{Debit: -balance}
	}
}

var (
	// ErrAccountNotFound indicates a missing ledger account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInvalidAccount indicates invalid account input.
	ErrInvalidAccount = errors.New("ledger: invalid account")
)
