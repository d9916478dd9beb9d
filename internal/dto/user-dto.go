package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	Email       string    `json:"email" validate:"required,email"`
	Fio         string    `json:"fio" validate:"required,max=150"`
	PhoneNumber string    `json:"phone_number" validate:"required,phone"`
	Password    string    `json:"password" validate:"required,min=6"`
	IsStaff     bool      `json:"is_staff"`
	IsActive    null.Bool `json:"is_active"`
	FilialIDs   []uint64  `json:"filial_ids"`
	GroupIDs    []uint64  `json:"group_ids"`
}

// UpdateUserDTO - пустой пароль оставляет текущий.
type UpdateUserDTO struct {
	Email       string      `json:"email" validate:"required,email"`
	Fio         string      `json:"fio" validate:"required,max=150"`
	PhoneNumber string      `json:"phone_number" validate:"required,phone"`
	Password    null.String `json:"password" validate:"omitempty,min=6"`
	IsStaff     bool        `json:"is_staff"`
	IsActive    bool        `json:"is_active"`
}

type UserPermissionsDTO struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
	GroupIDs    []uint64 `json:"group_ids"`
}

type UserFilialsDTO struct {
	FilialIDs []uint64 `json:"filial_ids"`
}
