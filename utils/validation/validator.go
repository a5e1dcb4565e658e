package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// PasswordMinLength is the minimum password length
const PasswordMinLength = 8

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their json name and
// knows the catalog enums (course_category, plan_name, plan_type, plan_duration).
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("course_category", oneOfStrings(model.CourseCategories))
	_ = v.RegisterValidation("plan_name", oneOfStrings(model.SubscriptionPlanNames))
	_ = v.RegisterValidation("plan_type", oneOfStrings(model.SubscriptionPlanTypes))
	_ = v.RegisterValidation("plan_duration", func(fl validator.FieldLevel) bool {
		d := int(fl.Field().Int())
		for _, allowed := range model.SubscriptionDurations {
			if d == allowed {
				return true
			}
		}
		return false
	})

	return &Validator{validate: v}
}

func oneOfStrings(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a field -> message map
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return out
	}
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = "Invalid email format"
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", field, e.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", field, e.Param())
		case "gte", "gtefield":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
		case "course_category", "plan_name", "plan_type", "plan_duration", "oneof":
			out[field] = fmt.Sprintf("%s has an unsupported value", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// Summary joins formatted validation errors into one line, sorted by field name
func Summary(err error) string {
	formatted := FormatValidationErrors(err)
	if len(formatted) == 0 {
		return err.Error()
	}
	fields := make([]string, 0, len(formatted))
	for f := range formatted {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, formatted[f])
	}
	return strings.Join(parts, "; ")
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) (bool, []string) {
	problems := []string{}

	if len(password) < PasswordMinLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", PasswordMinLength))
	}

	hasLetter, hasDigit := false, false
	for _, char := range password {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z'):
			hasLetter = true
		case char >= '0' && char <= '9':
			hasDigit = true
		}
	}
	if !hasLetter {
		problems = append(problems, "Password must contain at least one letter")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one number")
	}

	return len(problems) == 0, problems
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
