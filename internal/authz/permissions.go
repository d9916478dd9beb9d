// internal/authz/permissions.go
package authz

import "fmt"

// Resource - тип ресурса, на который выдаются права.
type Resource string

const (
	ResourceApartment    Resource = "apartment"
	ResourceCommerce     Resource = "commerce"
	ResourceHouse        Resource = "house"
	ResourceLand         Resource = "land"
	ResourceClient       Resource = "client"
	ResourceSelection    Resource = "selection"
	ResourceFilialAgency Resource = "filialagency"
	ResourceFilialReport Resource = "filialreport"
	ResourceRegion       Resource = "region"
	ResourceDistrict     Resource = "district"
	ResourceLocality     Resource = "locality"
	ResourceStreet       Resource = "street"
	ResourceHandbook     Resource = "handbook"
	ResourceUser         Resource = "user"
)

// Action - действие над ресурсом.
type Action string

const (
	ActionView        Action = "view"
	ActionAdd         Action = "add"
	ActionChange      Action = "change"
	ActionDelete      Action = "delete"
	ActionViewHistory Action = "view_history"
)

// Scope - ширина доступа. Порядок важен: Global ⊇ Filial ⊇ Own.
type Scope int

const (
	ScopeDenied Scope = iota
	ScopeOwn
	ScopeFilial
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeFilial:
		return "filial"
	case ScopeGlobal:
		return "global"
	}
	return "denied"
}

// Capability - стабильный идентификатор права, например "objects.view_own_apartment".
type Capability string

type capabilityKey struct {
	resource Resource
	action   Action
	scope    Scope
}

type resourceDef struct {
	app     string
	model   string
	title   string
	actions []Action
	// scoped - есть ли у ресурса права уровня own/filial
	scoped bool
}

var crud = []Action{ActionView, ActionAdd, ActionChange}
var crudWithHistory = []Action{ActionView, ActionAdd, ActionChange, ActionViewHistory}

// --- ТАБЛИЦА РЕСУРСОВ ---
var resourceSpecs = map[Resource]resourceDef{
	ResourceApartment:    {app: "objects", model: "apartment", title: "квартиры", actions: crudWithHistory, scoped: true},
	ResourceCommerce:     {app: "objects", model: "commerce", title: "коммерция", actions: crudWithHistory, scoped: true},
	ResourceHouse:        {app: "objects", model: "house", title: "дома", actions: crudWithHistory, scoped: true},
	ResourceLand:         {app: "objects", model: "land", title: "участки", actions: crudWithHistory, scoped: true},
	ResourceClient:       {app: "clients", model: "client", title: "клиенты", actions: crudWithHistory, scoped: true},
	ResourceSelection:    {app: "clients", model: "selection", title: "подборки", actions: []Action{ActionView, ActionAdd}, scoped: true},
	ResourceFilialAgency: {app: "users", model: "filialagency", title: "филиалы", actions: crudWithHistory},
	ResourceFilialReport: {app: "users", model: "filialreport", title: "отчёты филиалов", actions: crud},
	ResourceRegion:       {app: "handbooks", model: "region", title: "регионы", actions: crudWithHistory},
	ResourceDistrict:     {app: "handbooks", model: "district", title: "районы", actions: crudWithHistory},
	ResourceLocality:     {app: "handbooks", model: "locality", title: "населённые пункты", actions: crudWithHistory},
	ResourceStreet:       {app: "handbooks", model: "street", title: "улицы", actions: crudWithHistory},
	ResourceHandbook:     {app: "handbooks", model: "handbook", title: "справочники", actions: crudWithHistory},
	ResourceUser:         {app: "users", model: "user", title: "пользователи", actions: crud},
}

// CapabilityInfo - запись для сидера прав.
type CapabilityInfo struct {
	Name        Capability
	Description string
}

var (
	capabilities    map[capabilityKey]Capability
	capabilityInfos []CapabilityInfo
)

func init() {
	capabilities, capabilityInfos = buildCapabilities(resourceSpecs)
}

func buildCapabilities(defs map[Resource]resourceDef) (map[capabilityKey]Capability, []CapabilityInfo) {
	table := make(map[capabilityKey]Capability)
	seen := make(map[Capability]capabilityKey)
	var infos []CapabilityInfo

	add := func(key capabilityKey, name Capability, description string) {
		if prev, dup := seen[name]; dup {
			panic(fmt.Sprintf("authz: дубликат права %s (%v и %v)", name, prev, key))
		}
		seen[name] = key
		table[key] = name
		infos = append(infos, CapabilityInfo{Name: name, Description: description})
	}

	for _, res := range sortedResources(defs) {
		def := defs[res]
		for _, action := range def.actions {
			add(capabilityKey{res, action, ScopeGlobal},
				Capability(fmt.Sprintf("%s.%s_%s", def.app, action, def.model)),
				fmt.Sprintf("%s: %s (все)", def.title, action))
			if !def.scoped {
				continue
			}
			add(capabilityKey{res, action, ScopeFilial},
				Capability(fmt.Sprintf("%s.%s_filial_%s", def.app, action, def.model)),
				fmt.Sprintf("%s: %s (свой филиал)", def.title, action))
			add(capabilityKey{res, action, ScopeOwn},
				Capability(fmt.Sprintf("%s.%s_own_%s", def.app, action, def.model)),
				fmt.Sprintf("%s: %s (свои)", def.title, action))
		}
	}
	return table, infos
}

func sortedResources(defs map[Resource]resourceDef) []Resource {
	out := make([]Resource, 0, len(defs))
	for r := range defs {
		out = append(out, r)
	}
	// вставками: ресурсов немного
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// capabilityAction - удаление проверяется правом на изменение.
func capabilityAction(action Action) Action {
	if action == ActionDelete {
		return ActionChange
	}
	return action
}

// Lookup возвращает идентификатор права для (ресурс, действие, область).
func Lookup(resource Resource, action Action, scope Scope) (Capability, bool) {
	c, ok := capabilities[capabilityKey{resource, capabilityAction(action), scope}]
	return c, ok
}

// MustLookup - для статически известных комбинаций.
func MustLookup(resource Resource, action Action, scope Scope) Capability {
	c, ok := Lookup(resource, action, scope)
	if !ok {
		panic(fmt.Sprintf("authz: нет права для %s/%s/%s", resource, action, scope))
	}
	return c
}

// AllCapabilities - полный список прав системы.
func AllCapabilities() []CapabilityInfo {
	out := make([]CapabilityInfo, len(capabilityInfos))
	copy(out, capabilityInfos)
	return out
}

// IsScoped - есть ли у ресурса права уровня own/filial.
func IsScoped(resource Resource) bool {
	return resourceSpecs[resource].scoped
}
