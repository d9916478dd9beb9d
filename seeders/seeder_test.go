package seeders

import (
	"testing"

	"realty-system/internal/authz"
	"realty-system/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsData_KnownCapabilities(t *testing.T) {
	known := map[string]bool{}
	for _, c := range authz.AllCapabilities() {
		known[string(c.Name)] = true
	}

	for _, g := range groupsData() {
		codenames := g.codenames()
		require.NotEmpty(t, codenames, g.name)
		for _, c := range codenames {
			assert.True(t, known[c], "%s: %s", g.name, c)
		}
	}
}

func TestGroupsData_ScopeLevels(t *testing.T) {
	groups := groupsData()
	require.Len(t, groups, 3)

	realtor := groups[0].codenames()
	assert.Contains(t, realtor, string(authz.MustLookup(authz.ResourceApartment, authz.ActionView, authz.ScopeOwn)))
	assert.NotContains(t, realtor, string(authz.MustLookup(authz.ResourceApartment, authz.ActionView, authz.ScopeGlobal)))

	director := groups[2].codenames()
	assert.Contains(t, director, string(authz.MustLookup(authz.ResourceClient, authz.ActionViewHistory, authz.ScopeGlobal)))
	assert.Contains(t, director, string(authz.MustLookup(authz.ResourceFilialReport, authz.ActionAdd, authz.ScopeGlobal)))
}

func TestHandbooksData_ValidCategories(t *testing.T) {
	for category, names := range handbooksData {
		assert.True(t, entities.ValidHandbookCategory(category), category)
		assert.NotEmpty(t, names)
	}
}
