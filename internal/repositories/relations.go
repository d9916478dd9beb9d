package repositories

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"realty-system/internal/entities"
)

// Relation - обратная связь на сущность: FK один-ко-многим или m2m через промежуточную таблицу.
type Relation struct {
	// Table - таблица, в которой лежит ссылка (для m2m - промежуточная).
	Table  string
	Column string

	// Для m2m: владелец связи и колонка со ссылкой на него.
	OwnerTable  string
	OwnerColumn string

	// Дискриминатор в промежуточной таблице (selection_listings.listing_kind).
	KindColumn string
	KindValue  string

	// OwnerActive - живость владельца определяется is_active (пользователи).
	OwnerActive bool
}

func (r Relation) IsManyToMany() bool {
	return r.OwnerTable != ""
}

// Name - имя связи для сообщения об ошибке.
func (r Relation) Name() string {
	if r.IsManyToMany() {
		return fmt.Sprintf("%s.%s → %s", r.Table, r.Column, r.OwnerTable)
	}
	return r.Table + "." + r.Column
}

// liveQuery - SELECT 1 ... LIMIT 1 по живым строкам, ссылающимся на id.
func (r Relation) liveQuery(id uint64) sq.SelectBuilder {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	if !r.IsManyToMany() {
		return psql.Select("1").From(r.Table + " t").
			Where(sq.Eq{"t." + r.Column: id, "t.is_deleted": false}).
			Limit(1)
	}

	b := psql.Select("1").From(r.Table + " t").
		Join(fmt.Sprintf("%s o ON o.id = t.%s", r.OwnerTable, r.OwnerColumn)).
		Where(sq.Eq{"t." + r.Column: id})
	if r.KindColumn != "" {
		b = b.Where(sq.Eq{"t." + r.KindColumn: r.KindValue})
	}
	if r.OwnerActive {
		b = b.Where(sq.Eq{"o.is_active": true})
	} else {
		b = b.Where(sq.Eq{"o.is_deleted": false})
	}
	return b.Limit(1)
}

// entityTables - таблица хранения для каждого мягко удаляемого типа.
var entityTables = map[entities.EntityType]string{
	entities.EntityApartment:    "apartments",
	entities.EntityCommerce:     "commerce",
	entities.EntityHouse:        "houses",
	entities.EntityLand:         "land",
	entities.EntityClient:       "clients",
	entities.EntitySelection:    "selections",
	entities.EntityFilialAgency: "filial_agencies",
	entities.EntityFilialReport: "filial_reports",
	entities.EntityRegion:       "regions",
	entities.EntityDistrict:     "districts",
	entities.EntityLocality:     "localities",
	entities.EntityStreet:       "streets",
	entities.EntityHandbook:     "handbooks",
}

// TableFor возвращает таблицу типа сущности.
func TableFor(t entities.EntityType) (string, error) {
	table, ok := entityTables[t]
	if !ok {
		return "", fmt.Errorf("неизвестный тип сущности: %s", t)
	}
	return table, nil
}

// ListingTable - таблица конкретного типа объекта.
func ListingTable(kind entities.ListingKind) string {
	return entityTables[kind.EntityType()]
}

func fk(table, column string) Relation {
	return Relation{Table: table, Column: column}
}

func listingFKs(column string, kinds ...entities.ListingKind) []Relation {
	out := make([]Relation, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, fk(ListingTable(k), column))
	}
	return out
}

func selectionLink(kind entities.ListingKind) Relation {
	return Relation{
		Table: "selection_listings", Column: "listing_id",
		OwnerTable: "selections", OwnerColumn: "selection_id",
		KindColumn: "listing_kind", KindValue: string(kind),
	}
}

func concat(groups ...[]Relation) []Relation {
	var out []Relation
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// relationRegistry - все обратные связи, проверяемые перед мягким удалением.
var relationRegistry = map[entities.EntityType][]Relation{
	entities.EntityRegion: {
		fk("districts", "region_id"),
		fk("localities", "region_id"),
	},
	entities.EntityDistrict: {
		fk("localities", "district_id"),
	},
	entities.EntityLocality: concat(
		[]Relation{fk("streets", "locality_id")},
		listingFKs("locality_id", entities.ListingKinds...),
		[]Relation{{Table: "client_localities", Column: "locality_id", OwnerTable: "clients", OwnerColumn: "client_id"}},
	),
	entities.EntityStreet: concat(
		listingFKs("street_id", entities.ListingKinds...),
		[]Relation{{Table: "client_streets", Column: "street_id", OwnerTable: "clients", OwnerColumn: "client_id"}},
	),
	entities.EntityHandbook: concat(
		listingFKs("condition_id", entities.KindApartment, entities.KindCommerce, entities.KindHouse),
		listingFKs("material_id", entities.KindApartment, entities.KindHouse),
		[]Relation{{Table: "client_conditions", Column: "condition_id", OwnerTable: "clients", OwnerColumn: "client_id"}},
	),
	entities.EntityFilialAgency: concat(
		[]Relation{fk("filial_reports", "filial_id")},
		listingFKs("filial_id", entities.ListingKinds...),
		[]Relation{{Table: "user_filials", Column: "filial_id", OwnerTable: "users", OwnerColumn: "user_id", OwnerActive: true}},
	),
	entities.EntityClient: concat(
		listingFKs("client_id", entities.ListingKinds...),
		[]Relation{fk("selections", "client_id")},
	),
	entities.EntityApartment: {selectionLink(entities.KindApartment)},
	entities.EntityCommerce:  {selectionLink(entities.KindCommerce)},
	entities.EntityHouse:     {selectionLink(entities.KindHouse)},
	entities.EntityLand:      {selectionLink(entities.KindLand)},
}

// RelationsFor - обратные связи типа в фиксированном порядке.
func RelationsFor(t entities.EntityType) []Relation {
	return relationRegistry[t]
}
