package models

import "time"

// TournamentSnapshot is the latest persisted state of a tournament session.
type TournamentSnapshot struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Document  []byte    `json:"-"`
	Decided   int       `json:"decided"`
	Complete  bool      `json:"complete"`
	UpdatedAt time.Time `json:"updated_at"`
}
