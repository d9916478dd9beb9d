package services

import (
	"realty-system/internal/authz"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"

	sq "github.com/Masterminds/squirrel"
)

// VisibleListings дополняет запрос по объектам предикатом области просмотра.
// Запрос должен выбирать из таблицы объектов с алиасом repositories.ListingAlias.
func VisibleListings(c authz.Context, kind entities.ListingKind, base sq.SelectBuilder) sq.SelectBuilder {
	scope := authz.ResolveScope(c, authz.ListingResource(kind), authz.ActionView)
	return repositories.ApplyVisibility(base, repositories.ListingAlias, visibilityFor(c, scope))
}

// VisibleClients - то же для клиентов (якорь - риэлтор клиента).
func VisibleClients(c authz.Context, base sq.SelectBuilder) sq.SelectBuilder {
	scope := authz.ResolveScope(c, authz.ResourceClient, authz.ActionView)
	return repositories.ApplyVisibility(base, repositories.ClientAlias, visibilityFor(c, scope))
}
