package entities

type Permission struct {
	ID          uint64 `json:"id"`
	Codename    string `json:"codename"`
	Description string `json:"description"`
}
