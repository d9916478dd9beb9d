package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/internal/entities"
)

func TestRelationLiveQuery_FK(t *testing.T) {
	sql, args, err := fk("filial_reports", "filial_id").liveQuery(5).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM filial_reports t WHERE t.filial_id = $1 AND t.is_deleted = $2 LIMIT 1", sql)
	assert.Equal(t, []interface{}{uint64(5), false}, args)
}

func TestRelationLiveQuery_ManyToManyWithKind(t *testing.T) {
	sql, args, err := selectionLink(entities.KindHouse).liveQuery(9).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT 1 FROM selection_listings t JOIN selections o ON o.id = t.selection_id "+
			"WHERE t.listing_id = $1 AND t.listing_kind = $2 AND o.is_deleted = $3 LIMIT 1", sql)
	assert.Equal(t, []interface{}{uint64(9), "house", false}, args)
}

func TestRelationLiveQuery_ActiveUsers(t *testing.T) {
	var userLink *Relation
	for _, rel := range RelationsFor(entities.EntityFilialAgency) {
		if rel.Table == "user_filials" {
			r := rel
			userLink = &r
		}
	}
	require.NotNil(t, userLink)
	sql, _, err := userLink.liveQuery(1).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "o.is_active = $2")
}

func TestRelationRegistry(t *testing.T) {
	names := func(t entities.EntityType) []string {
		var out []string
		for _, r := range RelationsFor(t) {
			out = append(out, r.Name())
		}
		return out
	}

	assert.Equal(t, []string{"districts.region_id", "localities.region_id"}, names(entities.EntityRegion))
	assert.Contains(t, names(entities.EntityFilialAgency), "filial_reports.filial_id")
	assert.Contains(t, names(entities.EntityHandbook), "houses.material_id")
	assert.Contains(t, names(entities.EntityClient), "selections.client_id")
	assert.Len(t, RelationsFor(entities.EntityLocality), 6)
	assert.Empty(t, RelationsFor(entities.EntityFilialReport))

	for typ := range relationRegistry {
		_, err := TableFor(typ)
		assert.NoError(t, err, typ)
	}
}
