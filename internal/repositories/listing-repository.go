package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	db "realty-system/internal/infrastructure/bd"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
)

// Алиасы таблиц в запросах по объектам.
const (
	ListingAlias  = "o"
	LocalityAlias = "loc"
	StreetAlias   = "st"
)

var listingCommonColumns = []string{
	"locality_id", "street_id", "house_number", "area", "price", "status", "comment",
	"client_id", "realtor_id", "filial_id", "in_selection",
}

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var listingMap = map[string]string{
	"id":           "o.id",
	"locality_id":  "o.locality_id",
	"street_id":    "o.street_id",
	"status":       "o.status",
	"price":        "o.price",
	"area":         "o.area",
	"realtor_id":   "o.realtor_id",
	"client_id":    "o.client_id",
	"filial_id":    "o.filial_id",
	"in_selection": "o.in_selection",
	"created_at":   "o.created_at",
	"updated_at":   "o.updated_at",
}

// listingKindSpec - колонки и сканирование данных конкретного типа.
type listingKindSpec struct {
	columns []string
	// dest создаёт payload и возвращает указатели для Scan
	dest   func(l *entities.Listing) []interface{}
	values func(l *entities.Listing) []interface{}
}

func kindSpec(kind entities.ListingKind) listingKindSpec {
	switch kind {
	case entities.KindApartment:
		return listingKindSpec{
			columns: []string{"floor", "storeys_number", "rooms", "condition_id", "material_id", "kitchen_area"},
			dest: func(l *entities.Listing) []interface{} {
				l.Apartment = &entities.ApartmentDetails{}
				a := l.Apartment
				return []interface{}{&a.Floor, &a.StoreysNumber, &a.Rooms, &a.ConditionID, &a.MaterialID, &a.KitchenArea}
			},
			values: func(l *entities.Listing) []interface{} {
				a := l.Apartment
				return []interface{}{a.Floor, a.StoreysNumber, a.Rooms, a.ConditionID, a.MaterialID, a.KitchenArea}
			},
		}
	case entities.KindCommerce:
		return listingKindSpec{
			columns: []string{"floor", "storeys_number", "purpose", "condition_id"},
			dest: func(l *entities.Listing) []interface{} {
				l.Commerce = &entities.CommerceDetails{}
				c := l.Commerce
				return []interface{}{&c.Floor, &c.StoreysNumber, &c.Purpose, &c.ConditionID}
			},
			values: func(l *entities.Listing) []interface{} {
				c := l.Commerce
				return []interface{}{c.Floor, c.StoreysNumber, c.Purpose, c.ConditionID}
			},
		}
	case entities.KindHouse:
		return listingKindSpec{
			columns: []string{"storeys_number", "rooms", "land_area", "material_id", "condition_id"},
			dest: func(l *entities.Listing) []interface{} {
				l.House = &entities.HouseDetails{}
				h := l.House
				return []interface{}{&h.StoreysNumber, &h.Rooms, &h.LandArea, &h.MaterialID, &h.ConditionID}
			},
			values: func(l *entities.Listing) []interface{} {
				h := l.House
				return []interface{}{h.StoreysNumber, h.Rooms, h.LandArea, h.MaterialID, h.ConditionID}
			},
		}
	case entities.KindLand:
		return listingKindSpec{
			columns: []string{"purpose", "cadastral_number"},
			dest: func(l *entities.Listing) []interface{} {
				l.Land = &entities.LandDetails{}
				ld := l.Land
				return []interface{}{&ld.Purpose, &ld.CadastralNumber}
			},
			values: func(l *entities.Listing) []interface{} {
				ld := l.Land
				return []interface{}{ld.Purpose, ld.CadastralNumber}
			},
		}
	}
	panic(fmt.Sprintf("repositories: неизвестный тип объекта %q", string(kind)))
}

type ListingRepositoryInterface interface {
	GetListings(ctx context.Context, kind entities.ListingKind, filter types.Filter, vis Visibility) ([]entities.Listing, uint64, error)
	// FindListing возвращает объект и в удалённом состоянии; tx может быть nil.
	FindListing(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, id uint64) (*entities.Listing, error)
	FindListings(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) ([]entities.Listing, error)
	// MatchListings - активные объекты типа kind по предикатам подбора, в пределах видимости.
	MatchListings(ctx context.Context, kind entities.ListingKind, criteria sq.Sqlizer, vis Visibility) ([]entities.Listing, error)
	CreateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) (uint64, error)
	UpdateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) error
	MarkInSelection(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) error
}

type ListingRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewListingRepository(storage *pgxpool.Pool, logger *zap.Logger) ListingRepositoryInterface {
	return &ListingRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SELECT / SCAN
// -----------------------------------------------------------

// ListingSelect - базовый SELECT по таблице типа с адресом и риэлтором.
func ListingSelect(kind entities.ListingKind) sq.SelectBuilder {
	cols := []string{
		"o.id", "o.locality_id", "loc.name", "o.street_id", "COALESCE(st.name, '')", "o.house_number",
		"o.area", "o.price", "o.status", "o.comment", "o.client_id", "o.realtor_id", "u.fio",
		"ARRAY(SELECT uf.filial_id FROM user_filials uf WHERE uf.user_id = o.realtor_id ORDER BY uf.filial_id)",
		"o.filial_id", "o.in_selection", "o.is_deleted", "o.created_at", "o.updated_at",
	}
	for _, c := range kindSpec(kind).columns {
		cols = append(cols, "o."+c)
	}
	return listingFrom(sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(cols...), kind)
}

func listingFrom(b sq.SelectBuilder, kind entities.ListingKind) sq.SelectBuilder {
	return b.From(ListingTable(kind) + " " + ListingAlias).
		Join("localities loc ON loc.id = o.locality_id").
		LeftJoin("streets st ON st.id = o.street_id").
		Join("users u ON u.id = o.realtor_id")
}

func scanListing(row pgx.Row, kind entities.ListingKind) (*entities.Listing, error) {
	l := entities.Listing{Kind: kind}
	var filialIDs []int64
	dest := []interface{}{
		&l.ID, &l.LocalityID, &l.LocalityName, &l.StreetID, &l.StreetName, &l.HouseNumber,
		&l.Area, &l.Price, &l.Status, &l.Comment, &l.ClientID, &l.RealtorID, &l.RealtorFio,
		&filialIDs, &l.FilialID, &l.InSelection, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt,
	}
	dest = append(dest, kindSpec(kind).dest(&l)...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования %s: %w", kind, err)
	}
	l.RealtorFilialIDs = toUint64s(filialIDs)
	return &l, nil
}

func (r *ListingRepository) collect(ctx context.Context, q Querier, kind entities.ListingKind, b sq.SelectBuilder) ([]entities.Listing, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("запрос объектов %s: %w", kind, err)
	}
	defer rows.Close()

	listings := make([]entities.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows, kind)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func listingSearch(b sq.SelectBuilder, search string) sq.SelectBuilder {
	if search == "" {
		return b
	}
	pat := "%" + search + "%"
	return b.Where(sq.Or{
		sq.ILike{"loc.name": pat},
		sq.ILike{"st.name": pat},
		sq.ILike{"o.house_number": pat},
		sq.ILike{"o.comment": pat},
	})
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------
func (r *ListingRepository) GetListings(ctx context.Context, kind entities.ListingKind, filter types.Filter, vis Visibility) ([]entities.Listing, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	// 1. COUNT
	countBuilder := listingFrom(psql.Select("COUNT(o.id)"), kind).Where(VisibilityPredicate(ListingAlias, vis))
	countBuilder = listingSearch(countBuilder, filter.Search)
	countBuilder = db.ApplyFilters(countBuilder, filter, listingMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт объектов %s: %w", kind, err)
	}
	if total == 0 {
		return []entities.Listing{}, 0, nil
	}

	// 2. SELECT
	baseBuilder := listingSearch(ListingSelect(kind), filter.Search)
	baseBuilder = db.ApplyListParams(baseBuilder, filter, listingMap)
	baseBuilder = ApplyVisibility(baseBuilder, ListingAlias, vis)

	listings, err := r.collect(ctx, r.storage, kind, baseBuilder)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *ListingRepository) FindListing(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, id uint64) (*entities.Listing, error) {
	query, args, err := ListingSelect(kind).Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanListing(pick(r.storage, tx).QueryRow(ctx, query, args...), kind)
}

func (r *ListingRepository) FindListings(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) ([]entities.Listing, error) {
	if len(ids) == 0 {
		return []entities.Listing{}, nil
	}
	b := ListingSelect(kind).Where(sq.Eq{"o.id": ids}).OrderBy("o.id ASC")
	return r.collect(ctx, pick(r.storage, tx), kind, b)
}

func (r *ListingRepository) MatchListings(ctx context.Context, kind entities.ListingKind, criteria sq.Sqlizer, vis Visibility) ([]entities.Listing, error) {
	active := make([]string, len(entities.ActiveStatuses))
	for i, s := range entities.ActiveStatuses {
		active[i] = string(s)
	}
	b := ListingSelect(kind).Where(sq.Eq{"o.status": active})
	if criteria != nil {
		b = b.Where(criteria)
	}
	vis.IncludeDeleted = false
	b = ApplyVisibility(b, ListingAlias, vis)

	r.logger.Debug("подбор объектов", zap.String("kind", string(kind)))
	return r.collect(ctx, r.storage, kind, b)
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func listingValues(l *entities.Listing) []interface{} {
	return []interface{}{
		l.LocalityID, l.StreetID, l.HouseNumber, l.Area, l.Price, string(l.Status), l.Comment,
		l.ClientID, l.RealtorID, l.FilialID, l.InSelection,
	}
}

func (r *ListingRepository) CreateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) (uint64, error) {
	if err := listing.CheckPayload(); err != nil {
		return 0, err
	}
	spec := kindSpec(listing.Kind)
	cols := append(append([]string{}, listingCommonColumns...), spec.columns...)
	vals := append(listingValues(listing), spec.values(listing)...)

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(ListingTable(listing.Kind)).
		Columns(append(cols, "created_at", "updated_at")...).
		Values(append(vals, sq.Expr("NOW()"), sq.Expr("NOW()"))...).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}

	var newID uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		return 0, fmt.Errorf("создание объекта %s: %w", listing.Kind, err)
	}
	return newID, nil
}

func (r *ListingRepository) UpdateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) error {
	if err := listing.CheckPayload(); err != nil {
		return err
	}
	spec := kindSpec(listing.Kind)
	set := make(map[string]interface{}, len(listingCommonColumns)+len(spec.columns)+1)
	for i, v := range listingValues(listing) {
		set[listingCommonColumns[i]] = v
	}
	for i, v := range spec.values(listing) {
		set[spec.columns[i]] = v
	}
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(ListingTable(listing.Kind)).SetMap(set).
		Where(sq.Eq{"id": listing.ID, "is_deleted": false}).ToSql()
	if err != nil {
		return err
	}
	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("обновление объекта %s #%d: %w", listing.Kind, listing.ID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) MarkInSelection(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(ListingTable(kind)).
		Set("in_selection", true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}
