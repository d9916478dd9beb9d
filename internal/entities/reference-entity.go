package entities

import (
	"fmt"

	"realty-system/pkg/types"
)

// ReferenceKind - вид адресного справочника.
type ReferenceKind string

const (
	RefRegion   ReferenceKind = "region"
	RefDistrict ReferenceKind = "district"
	RefLocality ReferenceKind = "locality"
	RefStreet   ReferenceKind = "street"
)

func ParseReferenceKind(s string) (ReferenceKind, error) {
	switch ReferenceKind(s) {
	case RefRegion, RefDistrict, RefLocality, RefStreet:
		return ReferenceKind(s), nil
	}
	return "", fmt.Errorf("неизвестный справочник: %q", s)
}

func (k ReferenceKind) EntityType() EntityType {
	switch k {
	case RefRegion:
		return EntityRegion
	case RefDistrict:
		return EntityDistrict
	case RefLocality:
		return EntityLocality
	case RefStreet:
		return EntityStreet
	}
	panic(fmt.Sprintf("entities: неизвестный ReferenceKind %q", string(k)))
}

// Reference - регион, район, населённый пункт или улица.
type Reference struct {
	ID         uint64        `json:"id"`
	Kind       ReferenceKind `json:"kind"`
	Name       string        `json:"name"`
	RegionID   *uint64       `json:"region_id,omitempty"`
	DistrictID *uint64       `json:"district_id,omitempty"`
	LocalityID *uint64       `json:"locality_id,omitempty"`

	types.BaseEntity
	types.SoftDelete
}

func (r *Reference) HistoryRef() EntityRef {
	return EntityRef{Type: r.Kind.EntityType(), ID: r.ID}
}

func (r *Reference) HistoryFields() map[string]*string {
	return map[string]*string{
		"name":        strField(r.Name),
		"region_id":   optUintField(r.RegionID),
		"district_id": optUintField(r.DistrictID),
		"locality_id": optUintField(r.LocalityID),
		"is_deleted":  boolField(r.IsDeleted),
	}
}

// Категории справочников (handbooks)
const (
	HandbookCondition = "condition"
	HandbookMaterial  = "material"
	HandbookAgency    = "agency"
	HandbookHeating   = "heating"
	HandbookPurpose   = "purpose"
)

var HandbookCategories = []string{HandbookCondition, HandbookMaterial, HandbookAgency, HandbookHeating, HandbookPurpose}

func ValidHandbookCategory(category string) bool {
	for _, c := range HandbookCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Handbook struct {
	ID       uint64 `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`

	types.BaseEntity
	types.SoftDelete
}

func (h *Handbook) HistoryRef() EntityRef {
	return EntityRef{Type: EntityHandbook, ID: h.ID}
}

func (h *Handbook) HistoryFields() map[string]*string {
	return map[string]*string{
		"category":   strField(h.Category),
		"name":       strField(h.Name),
		"is_deleted": boolField(h.IsDeleted),
	}
}
