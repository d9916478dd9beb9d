package services

import (
	"strings"

	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	sq "github.com/Masterminds/squirrel"
)

// MatchCriteria - критерии подбора. Нулевое значение поля = без ограничения.
type MatchCriteria struct {
	LocalityIDs     []uint64
	StreetIDs       []uint64
	HouseNumber     string
	FloorFrom       *int
	FloorTo         *int
	Rooms           *int
	PriceFrom       *int64
	PriceTo         *int64
	PricePerAreaMax *float64
	ConditionIDs    []uint64
	NotFirstFloor   bool
	NotLastFloor    bool
	Keyword         string
}

func CriteriaFromDTO(d dto.MatchCriteriaDTO) MatchCriteria {
	c := MatchCriteria{
		LocalityIDs:   d.LocalityIDs,
		StreetIDs:     d.StreetIDs,
		HouseNumber:   strings.TrimSpace(d.HouseNumber),
		ConditionIDs:  d.ConditionIDs,
		NotFirstFloor: d.NotFirstFloor,
		NotLastFloor:  d.NotLastFloor,
		Keyword:       strings.TrimSpace(d.Keyword),
	}
	if d.FloorFrom.Valid {
		c.FloorFrom = &d.FloorFrom.Int
	}
	if d.FloorTo.Valid {
		c.FloorTo = &d.FloorTo.Int
	}
	if d.Rooms.Valid {
		c.Rooms = &d.Rooms.Int
	}
	if d.PriceFrom.Valid {
		c.PriceFrom = &d.PriceFrom.Int64
	}
	if d.PriceTo.Valid {
		c.PriceTo = &d.PriceTo.Int64
	}
	if d.PricePerAreaMax.Valid {
		c.PricePerAreaMax = &d.PricePerAreaMax.Float64
	}
	return c
}

// CriteriaFromProfile - сохранённый профиль поиска клиента.
func CriteriaFromProfile(p entities.SearchProfile) MatchCriteria {
	return MatchCriteria{
		LocalityIDs:     p.LocalityIDs,
		StreetIDs:       p.StreetIDs,
		HouseNumber:     p.HouseNumber,
		FloorFrom:       p.FloorFrom,
		FloorTo:         p.FloorTo,
		Rooms:           p.Rooms,
		PriceFrom:       p.PriceFrom,
		PriceTo:         p.PriceTo,
		PricePerAreaMax: p.PricePerAreaMax,
		ConditionIDs:    p.ConditionIDs,
		NotFirstFloor:   p.NotFirstFloor,
		NotLastFloor:    p.NotLastFloor,
		Keyword:         p.Keyword,
	}
}

func (c MatchCriteria) usesFloor() bool {
	return c.FloorFrom != nil || c.FloorTo != nil || c.NotFirstFloor || c.NotLastFloor
}

// Validate: критерии, не применимые к типу, и min > max - ошибка валидации.
func (c MatchCriteria) Validate(kind entities.ListingKind) error {
	verr := &apperrors.ValidationError{}
	if _, err := entities.ParseListingKind(string(kind)); err != nil {
		verr.Add("kind", err.Error())
		return verr
	}

	if c.usesFloor() && !kind.HasFloors() {
		verr.Add("floor", "этаж не применим к типу "+string(kind))
	}
	if c.Rooms != nil && !kind.HasRooms() {
		verr.Add("rooms", "комнаты не применимы к типу "+string(kind))
	}
	if len(c.ConditionIDs) > 0 && !kind.HasCondition() {
		verr.Add("condition_ids", "состояние не применимо к типу "+string(kind))
	}
	if c.FloorFrom != nil && c.FloorTo != nil && *c.FloorFrom > *c.FloorTo {
		verr.Add("floor_from", "больше floor_to")
	}
	if c.PriceFrom != nil && c.PriceTo != nil && *c.PriceFrom > *c.PriceTo {
		verr.Add("price_from", "больше price_to")
	}
	if c.PricePerAreaMax != nil && *c.PricePerAreaMax <= 0 {
		verr.Add("price_per_area_max", "должно быть больше нуля")
	}
	return verr.OrNil()
}

func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// Predicates - SQL-часть подбора. "Не последний этаж" сюда не входит: см. Accepts.
func (c MatchCriteria) Predicates() sq.And {
	o := repositories.ListingAlias + "."
	preds := sq.And{}

	if len(c.LocalityIDs) > 0 {
		preds = append(preds, sq.Eq{o + "locality_id": c.LocalityIDs})
	}
	if len(c.StreetIDs) > 0 {
		preds = append(preds, sq.Eq{o + "street_id": c.StreetIDs})
	}
	if c.HouseNumber != "" {
		preds = append(preds, sq.Eq{o + "house_number": c.HouseNumber})
	}
	if c.FloorFrom != nil {
		preds = append(preds, sq.GtOrEq{o + "floor": *c.FloorFrom})
	}
	if c.FloorTo != nil {
		preds = append(preds, sq.LtOrEq{o + "floor": *c.FloorTo})
	}
	if c.NotFirstFloor {
		preds = append(preds, sq.NotEq{o + "floor": 1})
	}
	if c.Rooms != nil {
		preds = append(preds, sq.Eq{o + "rooms": *c.Rooms})
	}
	if c.PriceFrom != nil {
		preds = append(preds, sq.GtOrEq{o + "price": *c.PriceFrom})
	}
	if c.PriceTo != nil {
		preds = append(preds, sq.LtOrEq{o + "price": *c.PriceTo})
	}
	if c.PricePerAreaMax != nil {
		preds = append(preds, sq.Expr(o+"price <= ? * "+o+"area", *c.PricePerAreaMax))
	}
	if len(c.ConditionIDs) > 0 {
		preds = append(preds, sq.Eq{o + "condition_id": c.ConditionIDs})
	}
	if c.Keyword != "" {
		pattern := likePattern(c.Keyword)
		preds = append(preds, sq.Or{
			sq.ILike{repositories.LocalityAlias + ".name": pattern},
			sq.ILike{repositories.StreetAlias + ".name": pattern},
			sq.ILike{o + "house_number": pattern},
			sq.ILike{o + "comment": pattern},
		})
	}
	return preds
}

// Accepts - проверка кандидата после запроса: "не последний этаж".
func (c MatchCriteria) Accepts(l *entities.Listing) bool {
	if c.NotLastFloor && l.IsLastFloor() {
		return false
	}
	return true
}
