package user

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/zawadi/chekechea/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"
)

func init() {
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)
}

// allRolesValidation checks that all passed roles are known.
func allRolesValidation(fl validator.FieldLevel) bool {
	if roles, ok := fl.Field().Interface().([]string); ok {
		all := append([]string(nil), AllRoles...)
		sort.Strings(all)
		for _, role := range roles {
			i := sort.SearchStrings(all, role)
			if i >= len(all) || all[i] != role {
				return false
			}
		}
		return true
	}
	return false
}
