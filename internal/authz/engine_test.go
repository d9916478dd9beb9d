package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
)

func actor(id uint64, filials ...uint64) *entities.User {
	return &entities.User{ID: id, IsActive: true, FilialIDs: filials}
}

func perms(caps ...Capability) map[string]bool {
	m := make(map[string]bool, len(caps))
	for _, c := range caps {
		m[string(c)] = true
	}
	return m
}

func apartment(id, realtor uint64, filials ...uint64) *entities.Listing {
	return &entities.Listing{
		ID: id, Kind: entities.KindApartment, RealtorID: realtor, RealtorFilialIDs: filials,
		Apartment: &entities.ApartmentDetails{Floor: 2, StoreysNumber: 5, Rooms: 2},
	}
}

func TestCapabilityNames(t *testing.T) {
	c, ok := Lookup(ResourceApartment, ActionView, ScopeOwn)
	require.True(t, ok)
	assert.Equal(t, Capability("objects.view_own_apartment"), c)

	c, ok = Lookup(ResourceClient, ActionChange, ScopeFilial)
	require.True(t, ok)
	assert.Equal(t, Capability("clients.change_filial_client"), c)

	c, ok = Lookup(ResourceStreet, ActionAdd, ScopeGlobal)
	require.True(t, ok)
	assert.Equal(t, Capability("handbooks.add_street"), c)

	_, ok = Lookup(ResourceStreet, ActionAdd, ScopeOwn)
	assert.False(t, ok, "у справочников нет области own")
}

func TestDeleteUsesChangeCapability(t *testing.T) {
	del, ok := Lookup(ResourceHouse, ActionDelete, ScopeFilial)
	require.True(t, ok)
	assert.Equal(t, MustLookup(ResourceHouse, ActionChange, ScopeFilial), del)
}

func TestAllCapabilitiesUnique(t *testing.T) {
	seen := map[Capability]bool{}
	for _, info := range AllCapabilities() {
		assert.False(t, seen[info.Name], "дубликат %s", info.Name)
		seen[info.Name] = true
		assert.NotEmpty(t, info.Description)
	}
	assert.True(t, seen["objects.view_history_land"])
}

func TestResolveScope_Precedence(t *testing.T) {
	u := actor(1, 10)
	c := NewContext(u, perms(
		MustLookup(ResourceApartment, ActionView, ScopeOwn),
		MustLookup(ResourceApartment, ActionView, ScopeFilial),
	))
	assert.Equal(t, ScopeFilial, ResolveScope(c, ResourceApartment, ActionView))

	c.Permissions[string(MustLookup(ResourceApartment, ActionView, ScopeGlobal))] = true
	assert.Equal(t, ScopeGlobal, ResolveScope(c, ResourceApartment, ActionView))

	assert.Equal(t, ScopeDenied, ResolveScope(c, ResourceCommerce, ActionView))
}

func TestResolveScope_SuperuserAndInactive(t *testing.T) {
	su := actor(1)
	su.IsSuperuser = true
	assert.Equal(t, ScopeGlobal, ResolveScope(NewContext(su, nil), ResourceLand, ActionViewHistory))

	inactive := actor(2)
	inactive.IsActive = false
	inactive.IsSuperuser = true
	c := NewContext(inactive, perms(MustLookup(ResourceLand, ActionView, ScopeGlobal)))
	assert.Equal(t, ScopeDenied, ResolveScope(c, ResourceLand, ActionView))
}

// Расширение прав никогда не сужает множество доступных объектов.
func TestScopeMonotonicity(t *testing.T) {
	u := actor(1, 10)
	items := []*entities.Listing{
		apartment(1, 1, 10),
		apartment(2, 2, 10),
		apartment(3, 3, 20),
	}
	own := NewContext(u, perms(MustLookup(ResourceApartment, ActionView, ScopeOwn)))
	filial := NewContext(u, perms(MustLookup(ResourceApartment, ActionView, ScopeFilial)))
	global := NewContext(u, perms(MustLookup(ResourceApartment, ActionView, ScopeGlobal)))
	none := NewContext(u, nil)

	ids := func(c Context) []uint64 {
		var out []uint64
		for _, l := range FilterVisible(c, ResourceApartment, ActionView, items) {
			out = append(out, l.ID)
		}
		return out
	}

	assert.Empty(t, ids(none))
	assert.Equal(t, []uint64{1}, ids(own))
	assert.Equal(t, []uint64{1, 2}, ids(filial))
	assert.Equal(t, []uint64{1, 2, 3}, ids(global))
	assert.Subset(t, ids(filial), ids(own))
	assert.Subset(t, ids(global), ids(filial))
}

func TestGatekeeper(t *testing.T) {
	g := NewGatekeeper()
	u := actor(1, 10)
	c := NewContext(u, perms(MustLookup(ResourceApartment, ActionChange, ScopeOwn)))

	assert.NoError(t, g.Require(c, ResourceApartment, ActionDelete, apartment(1, 1)))
	assert.ErrorIs(t, g.Require(c, ResourceApartment, ActionDelete, apartment(2, 2, 10)), apperrors.ErrForbidden)

	_, err := g.RequireAny(c, ResourceApartment, ActionView)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.ErrorIs(t, g.RequireGlobal(c, ResourceRegion, ActionAdd), apperrors.ErrForbidden)
}
