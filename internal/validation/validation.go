package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// mxidPattern matches a Matrix user id such as @alice:example.org.
var mxidPattern = regexp.MustCompile(`^@[^:\s]+:[^\s]+$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Tell the validator to use the JSON tag as the “field name”
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Grab the value of `json:"foo,omitempty"`
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			// fallback to the Go field name or skip
			return fld.Name
		}
		return name
	})

	// empty values pass; pair with required_if where the id is mandatory
	_ = validate.RegisterValidation("mxid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || mxidPattern.MatchString(s)
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ErrorsToString flattens validator errors into "field: tag" pairs, sorted by
// field name so messages are stable.
func ErrorsToString(validationErrs error) string {
	fieldErrs, ok := validationErrs.(validator.ValidationErrors)
	if !ok {
		return validationErrs.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fieldErr.Field(), fieldErr.Tag()))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
