package entities

import (
	"fmt"

	"realty-system/pkg/types"
)

// ListingKind - тип объекта недвижимости (тег объединения).
type ListingKind string

const (
	KindApartment ListingKind = "apartment"
	KindCommerce  ListingKind = "commerce"
	KindHouse     ListingKind = "house"
	KindLand      ListingKind = "land"
)

var ListingKinds = []ListingKind{KindApartment, KindCommerce, KindHouse, KindLand}

func ParseListingKind(s string) (ListingKind, error) {
	switch ListingKind(s) {
	case KindApartment, KindCommerce, KindHouse, KindLand:
		return ListingKind(s), nil
	}
	return "", fmt.Errorf("неизвестный тип объекта: %q", s)
}

func (k ListingKind) EntityType() EntityType {
	switch k {
	case KindApartment:
		return EntityApartment
	case KindCommerce:
		return EntityCommerce
	case KindHouse:
		return EntityHouse
	case KindLand:
		return EntityLand
	}
	panic(fmt.Sprintf("entities: неизвестный ListingKind %q", string(k)))
}

// HasFloors - у квартир и коммерции есть этаж внутри здания.
func (k ListingKind) HasFloors() bool {
	switch k {
	case KindApartment, KindCommerce:
		return true
	case KindHouse, KindLand:
		return false
	}
	return false
}

func (k ListingKind) HasRooms() bool {
	switch k {
	case KindApartment, KindHouse:
		return true
	case KindCommerce, KindLand:
		return false
	}
	return false
}

func (k ListingKind) HasCondition() bool {
	switch k {
	case KindApartment, KindCommerce, KindHouse:
		return true
	case KindLand:
		return false
	}
	return false
}

type ListingStatus string

const (
	StatusOnSale         ListingStatus = "ON_SALE"
	StatusDeposit        ListingStatus = "DEPOSIT"
	StatusWithdrawn      ListingStatus = "WITHDRAWN"
	StatusSold           ListingStatus = "SOLD"
	StatusFullyWithdrawn ListingStatus = "FULLY_WITHDRAWN"
)

// ActiveStatuses - объекты, которые участвуют в подборе.
var ActiveStatuses = []ListingStatus{StatusOnSale, StatusDeposit}

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusOnSale, StatusDeposit, StatusWithdrawn, StatusSold, StatusFullyWithdrawn:
		return true
	}
	return false
}

func (s ListingStatus) Active() bool {
	return s == StatusOnSale || s == StatusDeposit
}

type ApartmentDetails struct {
	Floor         int      `json:"floor"`
	StoreysNumber int      `json:"storeys_number"`
	Rooms         int      `json:"rooms"`
	ConditionID   *uint64  `json:"condition_id"`
	MaterialID    *uint64  `json:"material_id"`
	KitchenArea   *float64 `json:"kitchen_area"`
}

type CommerceDetails struct {
	Floor         int     `json:"floor"`
	StoreysNumber int     `json:"storeys_number"`
	Purpose       string  `json:"purpose"`
	ConditionID   *uint64 `json:"condition_id"`
}

type HouseDetails struct {
	StoreysNumber int      `json:"storeys_number"`
	Rooms         int      `json:"rooms"`
	LandArea      *float64 `json:"land_area"`
	MaterialID    *uint64  `json:"material_id"`
	ConditionID   *uint64  `json:"condition_id"`
}

type LandDetails struct {
	Purpose         string  `json:"purpose"`
	CadastralNumber *string `json:"cadastral_number"`
}

// Listing - объект недвижимости: общие поля + данные конкретного типа.
// Заполнено ровно одно из Apartment/Commerce/House/Land, в соответствии с Kind.
type Listing struct {
	ID   uint64      `json:"id"`
	Kind ListingKind `json:"kind"`

	LocalityID   uint64  `json:"locality_id"`
	LocalityName string  `json:"locality_name"`
	StreetID     *uint64 `json:"street_id"`
	StreetName   string  `json:"street_name"`
	HouseNumber  string  `json:"house_number"`

	Area    float64       `json:"area"`
	Price   int64         `json:"price"`
	Status  ListingStatus `json:"status"`
	Comment string        `json:"comment"`

	ClientID         *uint64  `json:"client_id"`
	RealtorID        uint64   `json:"realtor_id"`
	RealtorFio       string   `json:"realtor_fio"`
	RealtorFilialIDs []uint64 `json:"-"`
	FilialID         *uint64  `json:"filial_id"`
	InSelection      bool     `json:"in_selection"`

	Apartment *ApartmentDetails `json:"apartment,omitempty"`
	Commerce  *CommerceDetails  `json:"commerce,omitempty"`
	House     *HouseDetails     `json:"house,omitempty"`
	Land      *LandDetails      `json:"land,omitempty"`

	types.BaseEntity
	types.SoftDelete
}

// CheckPayload - заполнен ли именно тот payload, который соответствует Kind.
func (l *Listing) CheckPayload() error {
	set := 0
	for _, p := range []bool{l.Apartment != nil, l.Commerce != nil, l.House != nil, l.Land != nil} {
		if p {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("объект %s: ожидался ровно один блок данных типа, заполнено %d", l.Kind, set)
	}

	var ok bool
	switch l.Kind {
	case KindApartment:
		ok = l.Apartment != nil
	case KindCommerce:
		ok = l.Commerce != nil
	case KindHouse:
		ok = l.House != nil
	case KindLand:
		ok = l.Land != nil
	}
	if !ok {
		return fmt.Errorf("объект %s: блок данных не соответствует типу", l.Kind)
	}
	return nil
}

// Floor возвращает этаж, если он есть у данного типа.
func (l *Listing) Floor() (int, bool) {
	switch l.Kind {
	case KindApartment:
		if l.Apartment != nil {
			return l.Apartment.Floor, true
		}
	case KindCommerce:
		if l.Commerce != nil {
			return l.Commerce.Floor, true
		}
	case KindHouse, KindLand:
	}
	return 0, false
}

func (l *Listing) StoreysNumber() (int, bool) {
	switch l.Kind {
	case KindApartment:
		if l.Apartment != nil {
			return l.Apartment.StoreysNumber, true
		}
	case KindCommerce:
		if l.Commerce != nil {
			return l.Commerce.StoreysNumber, true
		}
	case KindHouse:
		if l.House != nil {
			return l.House.StoreysNumber, true
		}
	case KindLand:
	}
	return 0, false
}

func (l *Listing) Rooms() (int, bool) {
	switch l.Kind {
	case KindApartment:
		if l.Apartment != nil {
			return l.Apartment.Rooms, true
		}
	case KindHouse:
		if l.House != nil {
			return l.House.Rooms, true
		}
	case KindCommerce, KindLand:
	}
	return 0, false
}

func (l *Listing) ConditionID() *uint64 {
	switch l.Kind {
	case KindApartment:
		if l.Apartment != nil {
			return l.Apartment.ConditionID
		}
	case KindCommerce:
		if l.Commerce != nil {
			return l.Commerce.ConditionID
		}
	case KindHouse:
		if l.House != nil {
			return l.House.ConditionID
		}
	case KindLand:
	}
	return nil
}

// IsLastFloor - этаж совпадает с этажностью здания.
func (l *Listing) IsLastFloor() bool {
	floor, ok := l.Floor()
	if !ok {
		return false
	}
	storeys, ok := l.StoreysNumber()
	return ok && floor == storeys
}

func (l *Listing) OwnerRealtorID() uint64 {
	return l.RealtorID
}

func (l *Listing) OwnerFilialIDs() []uint64 {
	return l.RealtorFilialIDs
}

func (l *Listing) HistoryRef() EntityRef {
	return EntityRef{Type: l.Kind.EntityType(), ID: l.ID}
}

func (l *Listing) HistoryFields() map[string]*string {
	fields := map[string]*string{
		"locality_id":  uintField(l.LocalityID),
		"street_id":    optUintField(l.StreetID),
		"house_number": strField(l.HouseNumber),
		"area":         floatField(l.Area),
		"price":        int64Field(l.Price),
		"status":       strField(string(l.Status)),
		"comment":      strField(l.Comment),
		"client_id":    optUintField(l.ClientID),
		"realtor_id":   uintField(l.RealtorID),
		"filial_id":    optUintField(l.FilialID),
		"in_selection": boolField(l.InSelection),
		"is_deleted":   boolField(l.IsDeleted),
	}

	switch l.Kind {
	case KindApartment:
		if a := l.Apartment; a != nil {
			fields["floor"] = intField(&a.Floor)
			fields["storeys_number"] = intField(&a.StoreysNumber)
			fields["rooms"] = intField(&a.Rooms)
			fields["condition_id"] = optUintField(a.ConditionID)
			fields["material_id"] = optUintField(a.MaterialID)
			fields["kitchen_area"] = optFloatField(a.KitchenArea)
		}
	case KindCommerce:
		if c := l.Commerce; c != nil {
			fields["floor"] = intField(&c.Floor)
			fields["storeys_number"] = intField(&c.StoreysNumber)
			fields["purpose"] = strField(c.Purpose)
			fields["condition_id"] = optUintField(c.ConditionID)
		}
	case KindHouse:
		if h := l.House; h != nil {
			fields["storeys_number"] = intField(&h.StoreysNumber)
			fields["rooms"] = intField(&h.Rooms)
			fields["land_area"] = optFloatField(h.LandArea)
			fields["material_id"] = optUintField(h.MaterialID)
			fields["condition_id"] = optUintField(h.ConditionID)
		}
	case KindLand:
		if ld := l.Land; ld != nil {
			fields["purpose"] = strField(ld.Purpose)
			fields["cadastral_number"] = optStrField(ld.CadastralNumber)
		}
	}
	return fields
}
