package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	NotBlank = "not_blank"
	NoPad    = "no_pad"
)

// rule is a custom binding tag together with its English message. {0} is
// the json name of the failing field.
type rule struct {
	tag     string
	check   validator.Func
	message string
}

var rules = []rule{
	{tag: NotBlank, check: IsNotBlank, message: "{0} cannot be blank"},
	{tag: NoPad, check: IsNotPadded, message: "{0} cannot start or end with whitespace"},
}

// IsNotBlank rejects strings made only of whitespace. Role and module names
// are matched exactly, so a blank name could never be granted meaningfully.
func IsNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// IsNotPadded rejects leading or trailing whitespace.
func IsNotPadded(fl validator.FieldLevel) bool {
	input := fl.Field().String()
	return strings.TrimSpace(input) == input
}
