package dto

type PermissionDTO struct {
	ID          uint64 `json:"id"`
	Codename    string `json:"codename"`
	Description string `json:"description"`
}

type GroupDTO struct {
	ID            uint64   `json:"id"`
	Name          string   `json:"name"`
	PermissionIDs []uint64 `json:"permission_ids"`
}

