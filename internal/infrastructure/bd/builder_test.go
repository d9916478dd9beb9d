package db

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/pkg/types"
)

func TestApplyListParams(t *testing.T) {
	allowed := map[string]string{"status": "o.status", "price": "o.price"}
	filter := types.Filter{
		Filter:         map[string]interface{}{"status": "ON_SALE,DEPOSIT", "unknown": 1},
		Sort:           map[string]string{"price": "desc", "hack": "asc"},
		Limit:          10,
		Offset:         20,
		WithPagination: true,
	}

	b := sq.Select("o.id").From("apartments o").PlaceholderFormat(sq.Dollar)
	sql, args, err := ApplyListParams(b, filter, allowed).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT o.id FROM apartments o WHERE o.status IN ($1,$2) ORDER BY o.price DESC LIMIT 10 OFFSET 20", sql)
	assert.Equal(t, []interface{}{"ON_SALE", "DEPOSIT"}, args)
}
