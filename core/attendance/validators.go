package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/zawadi/chekechea/core"
)

var (
	statusTag  = "attstatus"
	statusText = "invalid attendance status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range Statuses {
		if val == s {
			return true
		}
	}
	return false
}
