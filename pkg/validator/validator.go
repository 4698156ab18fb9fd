package validator

import (
	"reflect"
	"strings"

	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// Report json names so messages match what clients sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// clockdate accepts any date encoding datetime.ParseDate understands
	_ = v.RegisterValidation("clockdate", func(fl validator.FieldLevel) bool {
		_, err := datetime.ParseDate(fl.Field().String())
		return err == nil
	})
	// clocktime accepts loosely formatted times of day
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := datetime.ParseClock(fl.Field().String())
		return err == nil
	})

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Check validates i and converts failures into a ValidationFailure domain
// error. Workflow methods call it before touching the database.
func (cv *CustomValidator) Check(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	if _, ok := err.(validator.ValidationErrors); !ok {
		return apperror.Validation("%v", err)
	}
	return apperror.ValidationFields(cv.FormatValidationErrors(err))
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required", "required_without":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param()
			case "max":
				errors[field] = field + " must be at most " + e.Param()
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "clockdate":
				errors[field] = field + " must be a date (YYYY-MM-DD)"
			case "clocktime":
				errors[field] = field + " must be a time (HH:MM or HH:MM:SS)"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
