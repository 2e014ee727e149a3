package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{5,}$`)

// New returns a configured validator with the storefront's custom rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// report json names in field errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validatorv10.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// money must be >= 0 with at most two decimals
	_ = v.RegisterValidation("nonnegative_money", func(fl validatorv10.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.IsNegative() && d.Equal(d.Round(2))
	})

	return v
}

// MaxQuantity caps the quantity a single cart request can add.
const MaxQuantity = 999

// ParseQuantity converts raw form input to a quantity in [1, MaxQuantity]. Blank or
// non-integer input becomes 1 rather than an error; larger integers are capped.
func ParseQuantity(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && q > 0 {
		return MaxQuantity
	}
	if err != nil || q < 1 {
		return 1
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
