package fee

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// NewPayment contains information needed to record a payment.
type NewPayment struct {
	LearnerID string          `json:"learner_id" validate:"required"`
	TermID    string          `json:"term_id"` // defaults to the active term
	Date      time.Time       `json:"payment_date"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reference string          `json:"reference_no" validate:"max=64"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.LearnerID = core.CleanString(np.LearnerID)
	np.TermID = core.CleanString(np.TermID)
	np.Reference = core.CleanString(np.Reference)
	return validate.Struct(np)
}

// NewClassFee sets the default fee of a class for a term.
type NewClassFee struct {
	ClassID string          `json:"class_id" validate:"required"`
	TermID  string          `json:"term_id"`
	Amount  decimal.Decimal `json:"amount" validate:"gte=0"`
}

func (nf *NewClassFee) Validate(validate *validator.Validate) error {
	nf.ClassID = core.CleanString(nf.ClassID)
	nf.TermID = core.CleanString(nf.TermID)
	return validate.Struct(nf)
}

// NewCustomFee overrides the class fee of a learner for a term.
type NewCustomFee struct {
	LearnerID string          `json:"learner_id" validate:"required"`
	TermID    string          `json:"term_id"`
	FeeType   string          `json:"fee_type" validate:"required,feetype"`
	Amount    decimal.Decimal `json:"custom_amount" validate:"gte=0"`
	Reason    string          `json:"reason" validate:"max=255"`
}

// Validate cleans & validates the fee. A full sponsorship is always free.
func (nf *NewCustomFee) Validate(validate *validator.Validate) error {
	nf.LearnerID = core.CleanString(nf.LearnerID)
	nf.TermID = core.CleanString(nf.TermID)
	nf.FeeType = core.CleanString(nf.FeeType, true /* lower */)
	nf.Reason = core.CleanString(nf.Reason)
	if nf.FeeType == school.FeeTypeFullSponsorship {
		nf.Amount = decimal.Zero
	}
	return validate.Struct(nf)
}

var (
	feeTypeTag  = "feetype"
	feeTypeText = "{0} must be one of full_sponsorship, partial_sponsorship or custom_amount"
)

// InitValidators registers the `feetype` tag.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(feeTypeTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, ft := range school.CustomFeeTypes {
			if s == ft {
				return true
			}
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, feeTypeTag, feeTypeText)
}
