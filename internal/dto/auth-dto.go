package dto

type LoginDTO struct {
	Login    string `json:"login" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponseDTO struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         UserPublicDTO `json:"user"`
}

type UserPublicDTO struct {
	ID          uint64   `json:"id"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone_number,omitempty"`
	FIO         string   `json:"fio"`
	IsSuperuser bool     `json:"is_superuser"`
	FilialIDs   []uint64 `json:"filial_ids"`
}
