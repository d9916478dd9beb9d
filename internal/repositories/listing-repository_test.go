package repositories

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/internal/authz"
	"realty-system/internal/entities"
)

func TestListingSelect_KindColumns(t *testing.T) {
	cases := map[entities.ListingKind][]string{
		entities.KindApartment: {"o.floor", "o.rooms", "o.kitchen_area", "FROM apartments o"},
		entities.KindCommerce:  {"o.floor", "o.purpose", "FROM commerce o"},
		entities.KindHouse:     {"o.land_area", "o.rooms", "FROM houses o"},
		entities.KindLand:      {"o.cadastral_number", "FROM land o"},
	}
	for kind, want := range cases {
		sql, _, err := ListingSelect(kind).ToSql()
		require.NoError(t, err)
		for _, w := range want {
			assert.Contains(t, sql, w, kind)
		}
		assert.Contains(t, sql, "LEFT JOIN streets st ON st.id = o.street_id")
	}
}

func TestListingScanDestinationsMatchColumns(t *testing.T) {
	for _, kind := range entities.ListingKinds {
		spec := kindSpec(kind)
		l := &entities.Listing{Kind: kind}
		assert.Len(t, spec.dest(l), len(spec.columns), kind)
		assert.Len(t, spec.values(l), len(spec.columns), kind)
		assert.NoError(t, l.CheckPayload(), kind)
	}
}

func TestListingSelect_OwnVisibilityOrdering(t *testing.T) {
	b := ListingSelect(entities.KindApartment).Where(sq.Eq{"o.status": []string{"ON_SALE", "DEPOSIT"}})
	b = ApplyVisibility(b, ListingAlias, Visibility{Scope: authz.ScopeOwn, ActorID: 3})
	sql, args, err := b.ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, "ORDER BY o.id ASC"), sql)
	assert.Contains(t, sql, "o.status IN ($1,$2)")
	assert.Contains(t, sql, "o.realtor_id = $4")
	assert.Equal(t, []interface{}{"ON_SALE", "DEPOSIT", false, uint64(3)}, args)
}
