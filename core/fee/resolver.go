package fee

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core/school"
)

// Fee sources
const (
	SourceCustom = "custom"
	SourceClass  = "class"
	SourceNone   = "none" // no fee configured for the learner's class & term
)

// EffectiveFee is the amount a learner owes for a term and where it comes from.
type EffectiveFee struct {
	Amount  decimal.Decimal `json:"amount"`
	Source  string          `json:"source"`
	FeeType string          `json:"fee_type,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// Configured tells a free term (explicit zero fee) apart from an unconfigured one.
func (ef EffectiveFee) Configured() bool {
	return ef.Source != SourceNone
}

// Label is the display name of the fee, eg. "Full Sponsorship" or "Class Fee".
func (ef EffectiveFee) Label() string {
	switch ef.Source {
	case SourceCustom:
		return school.FeeTypeLabel(ef.FeeType)
	case SourceClass:
		return "Class Fee"
	default:
		return "No Fee Configured"
	}
}

type (
	ClassFeeLookup interface {
		ClassFee(classID, termID string) (school.ClassFee, bool)
	}

	CustomFeeLookup interface {
		CustomFee(learnerID, termID string) (school.CustomFee, bool)
	}
)

// Resolve returns the effective fee of `learner` for `termID`.
// A custom fee supersedes the class fee, whatever their amounts.
func Resolve(learner school.Learner, termID string, classFees ClassFeeLookup, customFees CustomFeeLookup) EffectiveFee {
	if customFees != nil {
		if cf, ok := customFees.CustomFee(learner.ID, termID); ok {
			return EffectiveFee{Amount: cf.Amount, Source: SourceCustom, FeeType: cf.FeeType, Reason: cf.Reason}
		}
	}
	if classFees != nil {
		if cf, ok := classFees.ClassFee(learner.ClassID, termID); ok {
			return EffectiveFee{Amount: cf.Amount, Source: SourceClass}
		}
	}
	return EffectiveFee{Amount: decimal.Zero, Source: SourceNone}
}

type key struct {
	owner, term string
}

// ClassFeeTable is a ClassFeeLookup over a snapshot of class fees.
type ClassFeeTable map[key]school.ClassFee

func NewClassFeeTable(fees []school.ClassFee) ClassFeeTable {
	table := make(ClassFeeTable, len(fees))
	for _, f := range fees {
		table[key{f.ClassID, f.TermID}] = f
	}
	return table
}

func (t ClassFeeTable) ClassFee(classID, termID string) (school.ClassFee, bool) {
	f, ok := t[key{classID, termID}]
	return f, ok
}

// CustomFeeTable is a CustomFeeLookup over a snapshot of custom fees.
type CustomFeeTable map[key]school.CustomFee

func NewCustomFeeTable(fees []school.CustomFee) CustomFeeTable {
	table := make(CustomFeeTable, len(fees))
	for _, f := range fees {
		table[key{f.LearnerID, f.TermID}] = f
	}
	return table
}

func (t CustomFeeTable) CustomFee(learnerID, termID string) (school.CustomFee, bool) {
	f, ok := t[key{learnerID, termID}]
	return f, ok
}
