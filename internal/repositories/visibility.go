package repositories

import (
	sq "github.com/Masterminds/squirrel"

	"realty-system/internal/authz"
)

// Visibility - вычисленная область видимости для запроса.
type Visibility struct {
	Scope          authz.Scope
	ActorID        uint64
	FilialIDs      []uint64
	IncludeDeleted bool
}

// VisibilityPredicate - WHERE-часть фильтра видимости для таблицы с realtor_id.
// Подходит и для COUNT (без ORDER BY).
func VisibilityPredicate(alias string, v Visibility) sq.Sqlizer {
	preds := sq.And{}
	if !v.IncludeDeleted {
		preds = append(preds, sq.Eq{alias + ".is_deleted": false})
	}

	switch v.Scope {
	case authz.ScopeGlobal:
	case authz.ScopeFilial:
		preds = append(preds, sq.Expr(
			alias+".realtor_id IN (SELECT uf.user_id FROM user_filials uf WHERE uf.filial_id = ANY(?))",
			filialArray(v.FilialIDs),
		))
	case authz.ScopeOwn:
		preds = append(preds, sq.Eq{alias + ".realtor_id": v.ActorID})
	default:
		preds = append(preds, sq.Expr("FALSE"))
	}
	return preds
}

// ApplyVisibility добавляет предикат видимости и последним ключом сортировки id ASC.
func ApplyVisibility(b sq.SelectBuilder, alias string, v Visibility) sq.SelectBuilder {
	return b.Where(VisibilityPredicate(alias, v)).OrderBy(alias + ".id ASC")
}

func filialArray(ids []uint64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func toUint64s(ids []int64) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
