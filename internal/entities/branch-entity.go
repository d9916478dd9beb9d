package entities

import (
	"time"

	"realty-system/pkg/types"
)

// FilialAgency - филиал агентства.
type FilialAgency struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`

	types.BaseEntity
	types.SoftDelete
}

func (f *FilialAgency) HistoryRef() EntityRef {
	return EntityRef{Type: EntityFilialAgency, ID: f.ID}
}

func (f *FilialAgency) HistoryFields() map[string]*string {
	return map[string]*string{
		"name":         strField(f.Name),
		"address":      optStrField(f.Address),
		"phone_number": optStrField(f.PhoneNumber),
		"email":        optStrField(f.Email),
		"is_deleted":   boolField(f.IsDeleted),
	}
}

// FilialReport - отчёт филиала за период.
type FilialReport struct {
	ID         uint64    `json:"id"`
	FilialID   uint64    `json:"filial_id"`
	AuthorID   uint64    `json:"author_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	PeriodFrom time.Time `json:"period_from"`
	PeriodTo   time.Time `json:"period_to"`

	types.BaseEntity
	types.SoftDelete
}

func (r *FilialReport) HistoryRef() EntityRef {
	return EntityRef{Type: EntityFilialReport, ID: r.ID}
}

func (r *FilialReport) HistoryFields() map[string]*string {
	return map[string]*string{
		"filial_id":   uintField(r.FilialID),
		"author_id":   uintField(r.AuthorID),
		"title":       strField(r.Title),
		"body":        strField(r.Body),
		"period_from": strField(r.PeriodFrom.Format("2006-01-02")),
		"period_to":   strField(r.PeriodTo.Format("2006-01-02")),
		"is_deleted":  boolField(r.IsDeleted),
	}
}
