package dto

import "github.com/aarondl/null/v8"

type ClientDTO struct {
	Fio         string      `json:"fio" validate:"required,max=150"`
	PhoneNumber string      `json:"phone_number" validate:"required,phone"`
	ExtraPhone  null.String `json:"extra_phone" validate:"omitempty,phone"`
	Comment     string      `json:"comment" validate:"max=2000"`
	RealtorID   null.Uint64 `json:"realtor_id"`

	ObjectKind string           `json:"object_kind" validate:"omitempty,listing_kind"`
	Search     MatchCriteriaDTO `json:"search"`
}

type ClientStatusDTO struct {
	Status string `json:"status" validate:"required,client_status"`
}

type SelectionItemDTO struct {
	Kind      string `json:"kind" validate:"required,listing_kind"`
	ListingID uint64 `json:"listing_id" validate:"required"`
}

type CreateSelectionDTO struct {
	Items []SelectionItemDTO `json:"items" validate:"required,min=1,dive"`
}
