package entities

import (
	"time"

	"realty-system/pkg/types"
)

type ClientStatus string

const (
	ClientInSearch ClientStatus = "IN_SEARCH"
	ClientWithShow ClientStatus = "WITH_SHOW"
	ClientDecided  ClientStatus = "DECIDED"
	ClientDeferred ClientStatus = "DEFERRED"
)

// clientTransitions - допустимые переходы статуса клиента.
var clientTransitions = map[ClientStatus][]ClientStatus{
	ClientInSearch: {ClientWithShow},
	ClientWithShow: {ClientDecided, ClientDeferred},
	ClientDeferred: {ClientInSearch},
}

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientInSearch, ClientWithShow, ClientDecided, ClientDeferred:
		return true
	}
	return false
}

func (s ClientStatus) CanTransitionTo(next ClientStatus) bool {
	for _, allowed := range clientTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SearchProfile - сохранённые критерии поиска клиента. Пустое значение = без ограничения.
type SearchProfile struct {
	ObjectKind      ListingKind `json:"object_kind"`
	LocalityIDs     []uint64    `json:"locality_ids"`
	StreetIDs       []uint64    `json:"street_ids"`
	HouseNumber     string      `json:"house_number"`
	FloorFrom       *int        `json:"floor_from"`
	FloorTo         *int        `json:"floor_to"`
	Rooms           *int        `json:"rooms"`
	PriceFrom       *int64      `json:"price_from"`
	PriceTo         *int64      `json:"price_to"`
	PricePerAreaMax *float64    `json:"price_per_area_max"`
	ConditionIDs    []uint64    `json:"condition_ids"`
	NotFirstFloor   bool        `json:"not_first_floor"`
	NotLastFloor    bool        `json:"not_last_floor"`
	Keyword         string      `json:"keyword"`
}

type Client struct {
	ID               uint64        `json:"id"`
	Fio              string        `json:"fio"`
	PhoneNumber      string        `json:"phone_number"`
	ExtraPhone       *string       `json:"extra_phone"`
	Comment          string        `json:"comment"`
	Status           ClientStatus  `json:"status"`
	RealtorID        uint64        `json:"realtor_id"`
	RealtorFio       string        `json:"realtor_fio"`
	RealtorFilialIDs []uint64      `json:"-"`
	Search           SearchProfile `json:"search"`

	types.BaseEntity
	types.SoftDelete
}

func (c *Client) OwnerRealtorID() uint64 {
	return c.RealtorID
}

func (c *Client) OwnerFilialIDs() []uint64 {
	return c.RealtorFilialIDs
}

func (c *Client) HistoryRef() EntityRef {
	return EntityRef{Type: EntityClient, ID: c.ID}
}

func (c *Client) HistoryFields() map[string]*string {
	s := c.Search
	return map[string]*string{
		"fio":                strField(c.Fio),
		"phone_number":       strField(c.PhoneNumber),
		"extra_phone":        optStrField(c.ExtraPhone),
		"comment":            strField(c.Comment),
		"status":             strField(string(c.Status)),
		"realtor_id":         uintField(c.RealtorID),
		"object_kind":        strField(string(s.ObjectKind)),
		"locality_ids":       idsField(s.LocalityIDs),
		"street_ids":         idsField(s.StreetIDs),
		"house_number":       strField(s.HouseNumber),
		"floor_from":         intField(s.FloorFrom),
		"floor_to":           intField(s.FloorTo),
		"rooms":              intField(s.Rooms),
		"price_from":         optInt64Field(s.PriceFrom),
		"price_to":           optInt64Field(s.PriceTo),
		"price_per_area_max": optFloatField(s.PricePerAreaMax),
		"condition_ids":      idsField(s.ConditionIDs),
		"not_first_floor":    boolField(s.NotFirstFloor),
		"not_last_floor":     boolField(s.NotLastFloor),
		"keyword":            strField(s.Keyword),
		"is_deleted":         boolField(c.IsDeleted),
	}
}

// SelectionItem - ссылка на объект в подборке.
type SelectionItem struct {
	Kind      ListingKind `json:"kind"`
	ListingID uint64      `json:"listing_id"`
}

// Selection - подборка объектов для показа клиенту. После создания не меняется.
type Selection struct {
	ID        uint64          `json:"id"`
	ClientID  uint64          `json:"client_id"`
	UserID    uint64          `json:"user_id"`
	UserFio   string          `json:"user_fio"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []SelectionItem `json:"items"`

	types.SoftDelete
}
