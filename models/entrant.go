package models

// Entrant is a competitor. Identity is the ID; names are not unique.
type Entrant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
