package dto

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RegisterValidators teaches gin's validator about decimal fields. Decimals are
// validated through their string form, so the tags below parse it back.
//
//	dnonneg   decimal >= 0
//	dpositive decimal > 0
//	dpercent  0 <= decimal <= 100
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return registerDecimalValidators(v)
}

func registerDecimalValidators(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	checks := map[string]func(decimal.Decimal) bool{
		"dnonneg":   func(d decimal.Decimal) bool { return !d.IsNegative() },
		"dpositive": func(d decimal.Decimal) bool { return d.IsPositive() },
		"dpercent":  func(d decimal.Decimal) bool { return !d.IsNegative() && d.LessThanOrEqual(hundred) },
	}
	for tag, check := range checks {
		check := check
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && check(d)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
