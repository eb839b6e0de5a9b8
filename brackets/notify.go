package brackets

// EventKind names the mutation behind a change notification.
type EventKind string

const (
	EventMatchDecided EventKind = "match_decided"
	EventReset        EventKind = "reset"
	EventLoaded       EventKind = "loaded"
)

// Event describes one completed mutation. Added and Removed list matches that appeared
// or disappeared (the grand-final reset match).
type Event struct {
	Kind      EventKind `json:"kind"`
	MatchID   string    `json:"match_id,omitempty"`
	WinnerID  int       `json:"winner_id,omitempty"`
	Added     []string  `json:"added,omitempty"`
	Removed   []string  `json:"removed,omitempty"`
	CurrentID string    `json:"current_id"`
	LastID    string    `json:"last_id,omitempty"`
}

// Notifier is the change-notification call-out. It is invoked once after every
// successful mutation, with the graph already consistent.
type Notifier interface {
	BracketChanged(ev Event)
}

type NotifierFunc func(ev Event)

func (f NotifierFunc) BracketChanged(ev Event) { f(ev) }
