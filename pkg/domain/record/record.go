package record

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/shopspring/decimal"
)

// Kind tells whether a record is money going out or coming in.
type Kind string

const (
	Expense Kind = "EXPENSE"
	Income  Kind = "INCOME"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

// Label returns the human form used in titles ("Expense", "Income").
func (k Kind) Label() string {
	switch k {
	case Expense:
		return "Expense"
	case Income:
		return "Income"
	default:
		return string(k)
	}
}

// ParseKind accepts "expense" and "income" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidKind, s)
	}
	return k, nil
}

// Mutation is the kind of committed change a record went through.
type Mutation string

const (
	Created Mutation = "Created"
	Updated Mutation = "Updated"
	Deleted Mutation = "Deleted"
)

// State describes a record with respect to remote mirroring.
type State string

const (
	LocalOnly State = "LocalOnly"
	Mirrored  State = "Mirrored"
)

// Record is a single financial entry.
//
// LocalID is assigned by the local store and is always present once the
// record is committed. RemoteID stays empty until the first successful mirror.
type Record struct {
	LocalID    int64           `json:"localId"`
	RemoteID   string          `json:"remoteId,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	OccurredAt time.Time       `json:"occurredAt"`
	Note       string          `json:"note"`
	Kind       Kind            `json:"kind"`
	Pinned     bool            `json:"pinned"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// New builds a validated record that has not been stored anywhere yet.
func New(
	kind Kind,
	amount decimal.Decimal,
	category string,
	occurredAt time.Time,
	note string,
) (Record, error) {
	r := Record{
		Amount:     amount,
		Category:   strings.TrimSpace(category),
		OccurredAt: occurredAt,
		Note:       note,
		Kind:       kind,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// maxAmount is the first value a decimal(15,2) column cannot hold.
var maxAmount = decimal.New(1, 13)

// Validate returns the first broken field rule. Every error it returns
// matches domain.ErrValidation.
func (r Record) Validate() error {
	if !r.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !r.Amount.Equal(r.Amount.Round(2)) || r.Amount.GreaterThanOrEqual(maxAmount) {
		return domain.ErrAmountPrecision
	}
	if strings.TrimSpace(r.Category) == "" {
		return domain.ErrInvalidCategory
	}
	if !r.Kind.Valid() {
		return domain.ErrInvalidKind
	}
	return nil
}

// State returns LocalOnly until a remote id has been attached.
func (r Record) State() State {
	if r.RemoteID == "" {
		return LocalOnly
	}
	return Mirrored
}

// SortNewestFirst orders records by OccurredAt descending, breaking ties
// with the local id so snapshots are stable.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].OccurredAt.Equal(records[j].OccurredAt) {
			return records[i].OccurredAt.After(records[j].OccurredAt)
		}
		if records[i].LocalID != records[j].LocalID {
			return records[i].LocalID > records[j].LocalID
		}
		return records[i].RemoteID > records[j].RemoteID
	})
}
