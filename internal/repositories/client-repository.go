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

const ClientAlias = "c"

var clientMap = map[string]string{
	"id":          "c.id",
	"fio":         "c.fio",
	"status":      "c.status",
	"realtor_id":  "c.realtor_id",
	"object_kind": "c.object_kind",
	"created_at":  "c.created_at",
	"updated_at":  "c.updated_at",
}

// m2m-таблицы профиля поиска клиента
var clientLinks = []struct {
	table  string
	column string
	ids    func(s *entities.SearchProfile) []uint64
}{
	{"client_localities", "locality_id", func(s *entities.SearchProfile) []uint64 { return s.LocalityIDs }},
	{"client_streets", "street_id", func(s *entities.SearchProfile) []uint64 { return s.StreetIDs }},
	{"client_conditions", "condition_id", func(s *entities.SearchProfile) []uint64 { return s.ConditionIDs }},
}

type ClientRepositoryInterface interface {
	GetClients(ctx context.Context, filter types.Filter, vis Visibility) ([]entities.Client, uint64, error)
	FindClient(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Client, error)
	CreateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) (uint64, error)
	UpdateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status entities.ClientStatus) error
}

type ClientRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClientRepository(storage *pgxpool.Pool, logger *zap.Logger) ClientRepositoryInterface {
	return &ClientRepository{storage: storage, logger: logger}
}

func clientSelect() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(
		"c.id", "c.fio", "c.phone_number", "c.extra_phone", "c.comment", "c.status",
		"c.realtor_id", "u.fio",
		"ARRAY(SELECT uf.filial_id FROM user_filials uf WHERE uf.user_id = c.realtor_id ORDER BY uf.filial_id)",
		"c.object_kind",
		"ARRAY(SELECT cl.locality_id FROM client_localities cl WHERE cl.client_id = c.id ORDER BY cl.locality_id)",
		"ARRAY(SELECT cs.street_id FROM client_streets cs WHERE cs.client_id = c.id ORDER BY cs.street_id)",
		"c.house_number", "c.floor_from", "c.floor_to", "c.rooms", "c.price_from", "c.price_to",
		"c.price_per_area_max",
		"ARRAY(SELECT cc.condition_id FROM client_conditions cc WHERE cc.client_id = c.id ORDER BY cc.condition_id)",
		"c.not_first_floor", "c.not_last_floor", "c.keyword",
		"c.is_deleted", "c.created_at", "c.updated_at",
	).From("clients c").Join("users u ON u.id = c.realtor_id")
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	var filials, localities, streets, conditions []int64
	s := &c.Search
	err := row.Scan(
		&c.ID, &c.Fio, &c.PhoneNumber, &c.ExtraPhone, &c.Comment, &c.Status,
		&c.RealtorID, &c.RealtorFio, &filials,
		&s.ObjectKind, &localities, &streets,
		&s.HouseNumber, &s.FloorFrom, &s.FloorTo, &s.Rooms, &s.PriceFrom, &s.PriceTo,
		&s.PricePerAreaMax, &conditions,
		&s.NotFirstFloor, &s.NotLastFloor, &s.Keyword,
		&c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования client: %w", err)
	}
	c.RealtorFilialIDs = toUint64s(filials)
	s.LocalityIDs = toUint64s(localities)
	s.StreetIDs = toUint64s(streets)
	s.ConditionIDs = toUint64s(conditions)
	return &c, nil
}

func clientSearch(b sq.SelectBuilder, search string) sq.SelectBuilder {
	if search == "" {
		return b
	}
	pat := "%" + search + "%"
	return b.Where(sq.Or{
		sq.ILike{"c.fio": pat},
		sq.ILike{"c.phone_number": pat},
		sq.ILike{"c.comment": pat},
	})
}

func (r *ClientRepository) GetClients(ctx context.Context, filter types.Filter, vis Visibility) ([]entities.Client, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(c.id)").From("clients c").Where(VisibilityPredicate(ClientAlias, vis))
	countBuilder = clientSearch(countBuilder, filter.Search)
	countBuilder = db.ApplyFilters(countBuilder, filter, clientMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт клиентов: %w", err)
	}
	if total == 0 {
		return []entities.Client{}, 0, nil
	}

	b := clientSearch(clientSelect(), filter.Search)
	b = db.ApplyListParams(b, filter, clientMap)
	b = ApplyVisibility(b, ClientAlias, vis)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("запрос клиентов: %w", err)
	}
	defer rows.Close()

	clients := make([]entities.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *ClientRepository) FindClient(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Client, error) {
	query, args, err := clientSelect().Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanClient(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func clientColumns(c *entities.Client) map[string]interface{} {
	s := c.Search
	return map[string]interface{}{
		"fio":                c.Fio,
		"phone_number":       c.PhoneNumber,
		"extra_phone":        c.ExtraPhone,
		"comment":            c.Comment,
		"status":             string(c.Status),
		"realtor_id":         c.RealtorID,
		"object_kind":        string(s.ObjectKind),
		"house_number":       s.HouseNumber,
		"floor_from":         s.FloorFrom,
		"floor_to":           s.FloorTo,
		"rooms":              s.Rooms,
		"price_from":         s.PriceFrom,
		"price_to":           s.PriceTo,
		"price_per_area_max": s.PricePerAreaMax,
		"not_first_floor":    s.NotFirstFloor,
		"not_last_floor":     s.NotLastFloor,
		"keyword":            s.Keyword,
	}
}

func (r *ClientRepository) CreateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) (uint64, error) {
	set := clientColumns(client)
	set["created_at"] = sq.Expr("NOW()")
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("clients").SetMap(set).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("создание клиента: %w", err)
	}
	if err := r.replaceLinks(ctx, tx, id, &client.Search); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ClientRepository) UpdateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) error {
	set := clientColumns(client)
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update("clients").SetMap(set).Where(sq.Eq{"id": client.ID, "is_deleted": false}).ToSql()
	if err != nil {
		return err
	}
	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("обновление клиента #%d: %w", client.ID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return r.replaceLinks(ctx, tx, client.ID, &client.Search)
}

func (r *ClientRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status entities.ClientStatus) error {
	result, err := tx.Exec(ctx,
		`UPDATE clients SET status = $1, updated_at = NOW() WHERE id = $2 AND is_deleted = FALSE`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("смена статуса клиента #%d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) replaceLinks(ctx context.Context, tx pgx.Tx, clientID uint64, search *entities.SearchProfile) error {
	for _, link := range clientLinks {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE client_id = $1", link.table), clientID); err != nil {
			return fmt.Errorf("очистка %s: %w", link.table, err)
		}
		ids := link.ids(search)
		if len(ids) == 0 {
			continue
		}
		ins := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Insert(link.table).Columns("client_id", link.column)
		for _, id := range ids {
			ins = ins.Values(clientID, id)
		}
		query, args, err := ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("запись %s: %w", link.table, err)
		}
	}
	return nil
}
