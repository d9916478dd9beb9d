package entities

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EntityType - тип сущности для мягкого удаления и истории.
type EntityType string

const (
	EntityApartment    EntityType = "apartment"
	EntityCommerce     EntityType = "commerce"
	EntityHouse        EntityType = "house"
	EntityLand         EntityType = "land"
	EntityClient       EntityType = "client"
	EntitySelection    EntityType = "selection"
	EntityFilialAgency EntityType = "filial_agency"
	EntityFilialReport EntityType = "filial_report"
	EntityRegion       EntityType = "region"
	EntityDistrict     EntityType = "district"
	EntityLocality     EntityType = "locality"
	EntityStreet       EntityType = "street"
	EntityHandbook     EntityType = "handbook"
)

type EntityRef struct {
	Type EntityType `json:"type"`
	ID   uint64     `json:"id"`
}

// Тип изменения в снимке истории
const (
	ChangeCreated = "+"
	ChangeUpdated = "~"
	ChangeDeleted = "-"
)

// Historized - сущность, для которой при каждой мутации пишется снимок.
type Historized interface {
	HistoryRef() EntityRef
	HistoryFields() map[string]*string
}

// HistorySnapshot - неизменяемая версия полей сущности.
type HistorySnapshot struct {
	ID           uint64             `json:"id"`
	Ref          EntityRef          `json:"ref"`
	Version      int                `json:"version"`
	PrevID       *uint64            `json:"prev_id,omitempty"`
	ChangeType   string             `json:"change_type"`
	ChangeSet    uuid.UUID          `json:"change_set"`
	Fields       map[string]*string `json:"fields"`
	ChangedBy    *uint64            `json:"changed_by,omitempty"`
	ChangedByFio string             `json:"changed_by_fio,omitempty"`
	ChangedAt    time.Time          `json:"changed_at"`
}

// FieldChange - изменение одного поля между соседними снимками.
type FieldChange struct {
	Ref          EntityRef `json:"ref"`
	Version      int       `json:"version"`
	Field        string    `json:"field"`
	OldValue     *string   `json:"old_value"`
	NewValue     *string   `json:"new_value"`
	ChangedAt    time.Time `json:"changed_at"`
	ChangedBy    *uint64   `json:"changed_by,omitempty"`
	ChangedByFio string    `json:"changed_by_fio,omitempty"`
}

// --- хелперы для HistoryFields ---

func strField(s string) *string {
	return &s
}

func optStrField(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func intField(n *int) *string {
	if n == nil {
		return nil
	}
	s := strconv.Itoa(*n)
	return &s
}

func int64Field(n int64) *string {
	s := strconv.FormatInt(n, 10)
	return &s
}

func optInt64Field(n *int64) *string {
	if n == nil {
		return nil
	}
	return int64Field(*n)
}

func uintField(n uint64) *string {
	s := strconv.FormatUint(n, 10)
	return &s
}

func optUintField(n *uint64) *string {
	if n == nil {
		return nil
	}
	return uintField(*n)
}

func floatField(f float64) *string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return &s
}

func optFloatField(f *float64) *string {
	if f == nil {
		return nil
	}
	return floatField(*f)
}

func boolField(b bool) *string {
	s := strconv.FormatBool(b)
	return &s
}

func idsField(ids []uint64) *string {
	if len(ids) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(ids)*4)
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, id, 10)
	}
	s := string(buf)
	return &s
}

// HistoryEntry - снимок вместе с полями предыдущей версии (nil для первой).
type HistoryEntry struct {
	Snapshot HistorySnapshot
	Previous map[string]*string
}
