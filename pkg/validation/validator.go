package validation

import (
	"realty-system/pkg/customvalidator"

	"github.com/go-playground/validator/v10"
)

// CustomValidator - обертка для использования в Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate реализует интерфейс echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New создает и настраивает валидатор.
// Если правило не зарегистрировалось - возвращаем ошибку, сервер не должен стартовать.
func New() (*CustomValidator, error) {
	v := validator.New()

	// null-типы (types_adapter.go)
	registerNullTypes(v)

	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		return nil, err
	}
	return &CustomValidator{validator: v}, nil
}
