package errors

import (
	"fmt"
	"sort"
	"strings"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не действителен")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUserDisabled       = fmt.Errorf("пользователь отключён")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserNotFound = fmt.Errorf("пользователь не найден")

	// Общие
	ErrNotFound       = fmt.Errorf("запись не найдена")
	ErrBadRequest     = fmt.Errorf("неверный запрос")
	ErrConflict       = fmt.Errorf("конфликт данных")
	ErrInternalServer = fmt.Errorf("внутренняя ошибка сервера")
)

// HttpError - ошибка с явным HTTP-кодом и сообщением для клиента.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]string
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]string) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

func NewBadRequestError(message string) *HttpError {
	return &HttpError{Code: 400, Message: message, Err: ErrBadRequest}
}

// ReferentialIntegrityError - мягкое удаление заблокировано живыми зависимыми записями.
type ReferentialIntegrityError struct {
	Entity   string
	Relation string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("нельзя удалить %s: есть связанные записи (%s)", e.Entity, e.Relation)
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrConflict }

func NewReferentialIntegrityError(entity, relation string) error {
	return &ReferentialIntegrityError{Entity: entity, Relation: relation}
}

// ValidationError хранит сообщения по полям.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrBadRequest }

// Add добавляет сообщение для поля; первое сообщение по полю сохраняется.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil возвращает nil, если ошибок по полям нет.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Is(target error) bool { return target == ErrBadRequest }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
