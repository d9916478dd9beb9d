package repositories

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/internal/authz"
)

func visibleSQL(t *testing.T, v Visibility) (string, []interface{}) {
	t.Helper()
	b := sq.Select("o.id").From("apartments o").PlaceholderFormat(sq.Dollar).OrderBy("o.price DESC")
	sql, args, err := ApplyVisibility(b, "o", v).ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestApplyVisibility_Global(t *testing.T) {
	sql, args := visibleSQL(t, Visibility{Scope: authz.ScopeGlobal, ActorID: 1})
	assert.Equal(t, "SELECT o.id FROM apartments o WHERE (o.is_deleted = $1) ORDER BY o.price DESC, o.id ASC", sql)
	assert.Equal(t, []interface{}{false}, args)
}

func TestApplyVisibility_GlobalIncludeDeleted(t *testing.T) {
	sql, args := visibleSQL(t, Visibility{Scope: authz.ScopeGlobal, IncludeDeleted: true})
	assert.NotContains(t, sql, "is_deleted")
	assert.Empty(t, args)
}

func TestApplyVisibility_Own(t *testing.T) {
	sql, args := visibleSQL(t, Visibility{Scope: authz.ScopeOwn, ActorID: 7})
	assert.Contains(t, sql, "o.realtor_id = $2")
	assert.Equal(t, []interface{}{false, uint64(7)}, args)
}

func TestApplyVisibility_Filial(t *testing.T) {
	sql, args := visibleSQL(t, Visibility{Scope: authz.ScopeFilial, ActorID: 7, FilialIDs: []uint64{3, 4}})
	assert.Contains(t, sql, "o.realtor_id IN (SELECT uf.user_id FROM user_filials uf WHERE uf.filial_id = ANY($2))")
	assert.Equal(t, []interface{}{false, []int64{3, 4}}, args)
}

func TestApplyVisibility_Denied(t *testing.T) {
	sql, _ := visibleSQL(t, Visibility{Scope: authz.ScopeDenied, ActorID: 7})
	assert.Contains(t, sql, "FALSE")
}
