package validator

import (
	"fmt"
	"reflect"

	"go-pos-checkout/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Decimals are validated through their float value
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Money fields must be non-negative
	validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case float64:
			return v >= 0
		case decimal.Decimal:
			return !v.IsNegative()
		}
		return false
	})

	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := model.RolePrivileges[fl.Field().String()]
		return ok
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError returns the first validation failure as an error, or nil.
func FirstError(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
}
