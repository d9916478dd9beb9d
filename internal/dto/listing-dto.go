package dto

import "github.com/aarondl/null/v8"

// ListingDTO - создание и полное обновление объекта. Поля типа заполняются по kind.
type ListingDTO struct {
	LocalityID  uint64      `json:"locality_id" validate:"required"`
	StreetID    null.Uint64 `json:"street_id"`
	HouseNumber string      `json:"house_number" validate:"max=20"`
	Area        float64     `json:"area" validate:"gt=0"`
	Price       int64       `json:"price" validate:"gt=0"`
	Status      string      `json:"status" validate:"required,listing_status"`
	Comment     string      `json:"comment" validate:"max=2000"`
	ClientID    null.Uint64 `json:"client_id"`
	RealtorID   null.Uint64 `json:"realtor_id"`
	FilialID    null.Uint64 `json:"filial_id"`

	Floor           null.Int     `json:"floor" validate:"omitempty,gte=0"`
	StoreysNumber   null.Int     `json:"storeys_number" validate:"omitempty,gte=1"`
	Rooms           null.Int     `json:"rooms" validate:"omitempty,gte=0"`
	ConditionID     null.Uint64  `json:"condition_id"`
	MaterialID      null.Uint64  `json:"material_id"`
	KitchenArea     null.Float64 `json:"kitchen_area" validate:"omitempty,gt=0"`
	LandArea        null.Float64 `json:"land_area" validate:"omitempty,gt=0"`
	Purpose         null.String  `json:"purpose" validate:"omitempty,max=100"`
	CadastralNumber null.String  `json:"cadastral_number" validate:"omitempty,max=50"`
}

// MatchCriteriaDTO - критерии подбора. Все поля необязательны.
type MatchCriteriaDTO struct {
	LocalityIDs     []uint64     `json:"locality_ids"`
	StreetIDs       []uint64     `json:"street_ids"`
	HouseNumber     string       `json:"house_number" validate:"max=20"`
	FloorFrom       null.Int     `json:"floor_from" validate:"omitempty,gte=0"`
	FloorTo         null.Int     `json:"floor_to" validate:"omitempty,gte=0"`
	Rooms           null.Int     `json:"rooms" validate:"omitempty,gte=0"`
	PriceFrom       null.Int64   `json:"price_from" validate:"omitempty,gte=0"`
	PriceTo         null.Int64   `json:"price_to" validate:"omitempty,gte=0"`
	PricePerAreaMax null.Float64 `json:"price_per_area_max" validate:"omitempty,gt=0"`
	ConditionIDs    []uint64     `json:"condition_ids"`
	NotFirstFloor   bool         `json:"not_first_floor"`
	NotLastFloor    bool         `json:"not_last_floor"`
	Keyword         string       `json:"keyword" validate:"max=100"`
}

// FieldChangeDTO - строка истории изменений.
type FieldChangeDTO struct {
	Version      int     `json:"version"`
	Field        string  `json:"field"`
	OldValue     *string `json:"old_value"`
	NewValue     *string `json:"new_value"`
	ChangedAt    string  `json:"changed_at"`
	ChangedBy    *uint64 `json:"changed_by"`
	ChangedByFio string  `json:"changed_by_fio"`
}

// HistoryReportRowDTO - строка сводного отчёта по изменениям объектов.
type HistoryReportRowDTO struct {
	Kind         string           `json:"kind"`
	ListingID    uint64           `json:"listing_id"`
	ChangeType   string           `json:"change_type"`
	ChangedAt    string           `json:"changed_at"`
	ChangedByFio string           `json:"changed_by_fio"`
	Changes      []FieldChangeDTO `json:"changes"`
}
