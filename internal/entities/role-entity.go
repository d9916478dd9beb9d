package entities

// Group - группа пользователей с набором прав (аналог роли).
type Group struct {
	ID            uint64   `json:"id"`
	Name          string   `json:"name"`
	PermissionIDs []uint64 `json:"permission_ids"`
}
