package fee

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core/school"
)

type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

var Statuses = []Status{StatusPaid, StatusPartial, StatusUnpaid}

var ErrUnknownStatus = errors.New("unknown fee status")

// ParseStatus reads a report status filter. The empty string means no filter.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, st := range Statuses {
		if s == string(st) {
			return st, nil
		}
	}
	return "", errors.Wrap(ErrUnknownStatus, s)
}

// Balance is derived from a fee and its payments; it is never stored.
type Balance struct {
	EffectiveFee decimal.Decimal `json:"effective_fee"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Balance      decimal.Decimal `json:"balance"` // negative when overpaid
	Status       Status          `json:"status"`
}

func (b Balance) Overpaid() bool {
	return b.Balance.IsNegative()
}

// ComputeBalance sums `payments` against `effectiveFee`. Payment order does not matter.
// Only a zero balance is paid; an overpayment stays partial and is flagged by Overpaid.
func ComputeBalance(effectiveFee decimal.Decimal, payments []school.Payment) Balance {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	balance := effectiveFee.Sub(paid)

	var status Status
	switch {
	case balance.IsZero():
		status = StatusPaid
	case paid.IsPositive():
		status = StatusPartial
	default:
		status = StatusUnpaid
	}

	return Balance{
		EffectiveFee: effectiveFee,
		TotalPaid:    paid,
		Balance:      balance,
		Status:       status,
	}
}
