package seeders

import (
	"realty-system/internal/authz"
	"realty-system/internal/entities"
)

var listingResources = []authz.Resource{
	authz.ResourceApartment, authz.ResourceCommerce, authz.ResourceHouse, authz.ResourceLand,
}

// groupSpec - группа прав: на объекты и клиентов с одним уровнем доступа
// плюс дополнительные права.
type groupSpec struct {
	name  string
	scope authz.Scope
	extra []authz.Capability
}

func groupsData() []groupSpec {
	return []groupSpec{
		{name: "Риэлтор", scope: authz.ScopeOwn},
		{name: "Руководитель филиала", scope: authz.ScopeFilial},
		{
			name:  "Директор",
			scope: authz.ScopeGlobal,
			extra: []authz.Capability{
				authz.MustLookup(authz.ResourceFilialAgency, authz.ActionView, authz.ScopeGlobal),
				authz.MustLookup(authz.ResourceFilialReport, authz.ActionView, authz.ScopeGlobal),
				authz.MustLookup(authz.ResourceFilialReport, authz.ActionAdd, authz.ScopeGlobal),
				authz.MustLookup(authz.ResourceUser, authz.ActionView, authz.ScopeGlobal),
			},
		},
	}
}

// codenames - права группы: просмотр, добавление, изменение и история
// объектов и клиентов, подборки.
func (g groupSpec) codenames() []string {
	var out []string
	add := func(r authz.Resource, actions ...authz.Action) {
		for _, a := range actions {
			out = append(out, string(authz.MustLookup(r, a, g.scope)))
		}
	}
	for _, r := range listingResources {
		add(r, authz.ActionView, authz.ActionAdd, authz.ActionChange, authz.ActionViewHistory)
	}
	add(authz.ResourceClient, authz.ActionView, authz.ActionAdd, authz.ActionChange, authz.ActionViewHistory)
	add(authz.ResourceSelection, authz.ActionView, authz.ActionAdd)
	for _, c := range g.extra {
		out = append(out, string(c))
	}
	return out
}

var handbooksData = map[string][]string{
	entities.HandbookCondition: {"Без ремонта", "Косметический ремонт", "Евроремонт", "Черновая отделка"},
	entities.HandbookMaterial:  {"Кирпич", "Панель", "Монолит", "Блок"},
	entities.HandbookHeating:   {"Центральное", "Автономное", "Отсутствует"},
	entities.HandbookPurpose:   {"ИЖС", "Сельхозназначение", "Торговое помещение", "Офис", "Склад"},
}
