package dto

import "github.com/aarondl/null/v8"

type ReferenceDTO struct {
	Name       string      `json:"name" validate:"required,max=150"`
	RegionID   null.Uint64 `json:"region_id"`
	DistrictID null.Uint64 `json:"district_id"`
	LocalityID null.Uint64 `json:"locality_id"`
}

type HandbookDTO struct {
	Name string `json:"name" validate:"required,max=150"`
}

type FilialDTO struct {
	Name        string      `json:"name" validate:"required,max=150"`
	Address     null.String `json:"address" validate:"omitempty,max=250"`
	PhoneNumber null.String `json:"phone_number" validate:"omitempty,phone"`
	Email       null.String `json:"email" validate:"omitempty,email"`
}

type FilialReportDTO struct {
	Title      string `json:"title" validate:"required,max=200"`
	Body       string `json:"body"`
	PeriodFrom string `json:"period_from" validate:"required,datetime=2006-01-02"`
	PeriodTo   string `json:"period_to" validate:"required,datetime=2006-01-02"`
}
