package helper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the money tags registered:
//
//	money        > 0, at most two decimals
//	money_nonneg >= 0, at most two decimals
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && d.IsPositive() && HasAtMostTwoDecimals(d)
		})
		_ = v.RegisterValidation("money_nonneg", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && !d.IsNegative() && HasAtMostTwoDecimals(d)
		})
		validate = v
	})
	return validate
}

// ValidationErrors flattens validator errors into field -> messages.
func ValidationErrors(err error) map[string][]string {
	out := map[string][]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range ve {
		out[fe.Field()] = append(out[fe.Field()], messageFor(fe))
	}
	return out
}

// ValidationError renders err as a 422 response.
func ValidationError(c *fiber.Ctx, err error) error {
	return JsonValidationError(c, ValidationErrors(err))
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "money":
		return "must be a positive amount with at most 2 decimals"
	case "money_nonneg":
		return "must be zero or a positive amount with at most 2 decimals"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid url"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// FieldErrors is returned by services when input fails validation.
type FieldErrors struct {
	Fields map[string][]string
}

func (e *FieldErrors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msgs := range e.Fields {
		parts = append(parts, f+": "+strings.Join(msgs, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate runs the shared validator and wraps failures in *FieldErrors.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return &FieldErrors{Fields: ValidationErrors(err)}
	}
	return nil
}

func NewFieldError(field, msg string) *FieldErrors {
	return &FieldErrors{Fields: map[string][]string{field: {msg}}}
}
