package authz

import (
	"realty-system/internal/entities"
)

// Owned - объект с якорями области: риэлтор (OWN) и его филиалы (FILIAL).
type Owned interface {
	OwnerRealtorID() uint64
	OwnerFilialIDs() []uint64
}

// Context - принципал запроса: пользователь, его права и филиалы.
type Context struct {
	Actor       *entities.User
	Permissions map[string]bool
}

func NewContext(actor *entities.User, permissions map[string]bool) Context {
	return Context{Actor: actor, Permissions: permissions}
}

// HasPermission: неактивный пользователь прав не имеет, суперпользователь имеет все.
func (c Context) HasPermission(capability Capability) bool {
	if c.Actor == nil || !c.Actor.IsActive {
		return false
	}
	if c.Actor.IsSuperuser {
		return true
	}
	return c.Permissions[string(capability)]
}

// ResolveScope проверяет права в порядке global → filial → own.
func ResolveScope(c Context, resource Resource, action Action) Scope {
	for _, scope := range []Scope{ScopeGlobal, ScopeFilial, ScopeOwn} {
		capability, ok := Lookup(resource, action, scope)
		if !ok {
			continue
		}
		if c.HasPermission(capability) {
			return scope
		}
	}
	return ScopeDenied
}

// InScope - попадает ли объект в уже вычисленную область.
func InScope(c Context, scope Scope, target Owned) bool {
	switch scope {
	case ScopeGlobal:
		return true
	case ScopeFilial:
		return c.Actor != nil && c.Actor.SharesFilial(target.OwnerFilialIDs())
	case ScopeOwn:
		return c.Actor != nil && target.OwnerRealtorID() == c.Actor.ID
	case ScopeDenied:
		return false
	}
	return false
}

func CanActOn(c Context, resource Resource, action Action, target Owned) bool {
	return InScope(c, ResolveScope(c, resource, action), target)
}

// FilterVisible оставляет только объекты, доступные принципалу. Порядок сохраняется.
func FilterVisible[T Owned](c Context, resource Resource, action Action, items []T) []T {
	scope := ResolveScope(c, resource, action)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if InScope(c, scope, item) {
			out = append(out, item)
		}
	}
	return out
}

// ListingResource - ресурс прав для типа объекта.
func ListingResource(kind entities.ListingKind) Resource {
	switch kind {
	case entities.KindApartment:
		return ResourceApartment
	case entities.KindCommerce:
		return ResourceCommerce
	case entities.KindHouse:
		return ResourceHouse
	case entities.KindLand:
		return ResourceLand
	}
	panic("authz: неизвестный тип объекта " + string(kind))
}

// ReferenceResource - ресурс прав для справочника адресов.
func ReferenceResource(kind entities.ReferenceKind) Resource {
	switch kind {
	case entities.RefRegion:
		return ResourceRegion
	case entities.RefDistrict:
		return ResourceDistrict
	case entities.RefLocality:
		return ResourceLocality
	case entities.RefStreet:
		return ResourceStreet
	}
	panic("authz: неизвестный справочник " + string(kind))
}
