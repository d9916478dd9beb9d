// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"realty-system/internal/entities"

	"github.com/go-playground/validator/v10"
)

var (
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// +992XXXXXXXXX, +7XXXXXXXXXX и т.п.: плюс и 9-15 цифр
	phoneRegexp = regexp.MustCompile(`^\+\d{9,15}$`)
)

// RegisterCustomValidations регистрирует все наши правила в переданном валидаторе.
func RegisterCustomValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone":             isPhoneNumber,
		"email":             isGoodEmailFormat,
		"listing_kind":      isListingKind,
		"listing_status":    isListingStatus,
		"client_status":     isClientStatus,
		"handbook_category": isHandbookCategory,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegexp.MatchString(fl.Field().String())
}

func isPhoneNumber(fl validator.FieldLevel) bool {
	return phoneRegexp.MatchString(fl.Field().String())
}

func isListingKind(fl validator.FieldLevel) bool {
	_, err := entities.ParseListingKind(fl.Field().String())
	return err == nil
}

func isListingStatus(fl validator.FieldLevel) bool {
	return entities.ListingStatus(fl.Field().String()).Valid()
}

func isClientStatus(fl validator.FieldLevel) bool {
	return entities.ClientStatus(fl.Field().String()).Valid()
}

func isHandbookCategory(fl validator.FieldLevel) bool {
	return entities.ValidHandbookCategory(fl.Field().String())
}
