package phone

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	kePhoneTag  = "kephone"
	kePhoneText = "{0} must be a valid Kenyan phone number"
)

// InitValidators registers the `kephone` tag, backed by `n`.
// Empty values pass; combine with `required` when the number is mandatory.
func InitValidators(validate *validator.Validate, translator ut.Translator, n *Normalizer) {
	_ = validate.RegisterValidation(kePhoneTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		if Clean(s) == "" {
			return true
		}
		_, err := n.Normalize(s)
		return err == nil
	})
	core.RegisterCustomTranslation(validate, translator, kePhoneTag, kePhoneText)
}
