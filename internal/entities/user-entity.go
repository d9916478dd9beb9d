// Файл: internal/entities/user-entity.go
package entities

import (
	"time"

	"realty-system/pkg/types"
)

type User struct {
	ID          uint64 `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	Fio         string `json:"fio" db:"fio"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Password string `json:"-" db:"password"`

	IsStaff     bool `json:"is_staff" db:"is_staff"`
	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`
	IsActive    bool `json:"is_active" db:"is_active"`

	// Членство в филиалах (user_filials) и группах (user_groups)
	FilialIDs []uint64 `json:"filial_ids" db:"-"`
	GroupIDs  []uint64 `json:"group_ids" db:"-"`

	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`

	types.BaseEntity
}

// SharesFilial - есть ли у пользователя хотя бы один общий филиал с переданным списком.
func (u *User) SharesFilial(filialIDs []uint64) bool {
	for _, own := range u.FilialIDs {
		for _, other := range filialIDs {
			if own == other {
				return true
			}
		}
	}
	return false
}
