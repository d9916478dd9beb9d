package authz

import (
	apperrors "realty-system/pkg/errors"
)

// Gatekeeper - проверки прав, возвращающие ошибки из таксономии приложения.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Scope возвращает область для списков. DENIED не ошибка: список просто пуст.
func (g *Gatekeeper) Scope(c Context, resource Resource, action Action) Scope {
	return ResolveScope(c, resource, action)
}

// RequireAny - у принципала есть право хотя бы в какой-то области.
func (g *Gatekeeper) RequireAny(c Context, resource Resource, action Action) (Scope, error) {
	scope := ResolveScope(c, resource, action)
	if scope == ScopeDenied {
		return scope, apperrors.ErrForbidden
	}
	return scope, nil
}

// RequireGlobal - для ресурсов без own/filial (справочники, филиалы, пользователи).
func (g *Gatekeeper) RequireGlobal(c Context, resource Resource, action Action) error {
	if ResolveScope(c, resource, action) != ScopeGlobal {
		return apperrors.ErrForbidden
	}
	return nil
}

// Require - доступ к конкретному объекту.
func (g *Gatekeeper) Require(c Context, resource Resource, action Action, target Owned) error {
	if !CanActOn(c, resource, action, target) {
		return apperrors.ErrForbidden
	}
	return nil
}
