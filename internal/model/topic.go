package model

// Topic mirrors a row of the topics table.
type Topic struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
}
