package models

import "fmt"

// MatchState is the progression state of a single match.
type MatchState string

const (
	MatchPending MatchState = "pending" // at least one slot is still unresolved
	MatchReady   MatchState = "ready"   // both slots hold entrants, no winner yet
	MatchDecided MatchState = "decided"
)

// Side names which half of a match outcome an origin reference consumes.
type Side string

const (
	SideWinner Side = "winner"
	SideLoser  Side = "loser"
)

// Origin is a symbolic "winner/loser of match X" reference. The zero value means the
// slot is seeded directly from the entrant registry.
type Origin struct {
	Side    Side   `json:"side"`
	MatchID string `json:"match_id"`
}

func (o Origin) IsZero() bool {
	return o.Side == "" && o.MatchID == ""
}

// String renders the reference in its persisted "side:matchId" form.
func (o Origin) String() string {
	if o.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s", o.Side, o.MatchID)
}

// Slot is one side of a match: unresolved, the bye placeholder, or an entrant.
type Slot struct {
	Entrant *Entrant `json:"entrant,omitempty"`
	Bye     bool     `json:"bye,omitempty"`
}

func EntrantSlot(e *Entrant) Slot { return Slot{Entrant: e} }

func ByeSlot() Slot { return Slot{Bye: true} }

func (s Slot) Resolved() bool {
	return s.Bye || s.Entrant != nil
}

func (s Slot) Holds(entrantID int) bool {
	return s.Entrant != nil && s.Entrant.ID == entrantID
}

// Label is the text a renderer shows for the slot.
func (s Slot) Label() string {
	switch {
	case s.Bye:
		return "-"
	case s.Entrant == nil:
		return "??"
	default:
		return s.Entrant.Name
	}
}

// Match is a node of the bracket graph. Cross references to other matches are kept as
// ids into the owning tournament's match index.
type Match struct {
	ID      string      `json:"id"`
	Bracket BracketName `json:"bracket"`
	Round   int         `json:"round"`

	Slot1 Slot `json:"slot1"`
	Slot2 Slot `json:"slot2"`

	Winner *Entrant `json:"winner,omitempty"`
	Loser  *Entrant `json:"loser,omitempty"`

	Origin1 Origin `json:"origin1"`
	Origin2 Origin `json:"origin2"`

	FromMatch1      string `json:"from_match1,omitempty"`
	FromMatch2      string `json:"from_match2,omitempty"`
	AdvanceWinnerTo string `json:"advance_winner_to,omitempty"`
	AdvanceLoserTo  string `json:"advance_loser_to,omitempty"`

	IsBye        bool `json:"is_bye"`
	IsGrandFinal bool `json:"is_grand_final"`
}

func (m *Match) State() MatchState {
	if m.Winner != nil {
		return MatchDecided
	}
	if !m.IsBye && m.Slot1.Entrant != nil && m.Slot2.Entrant != nil {
		return MatchReady
	}
	return MatchPending
}

// Occupies reports whether the entrant sits in either slot.
func (m *Match) Occupies(entrantID int) bool {
	return m.Slot1.Holds(entrantID) || m.Slot2.Holds(entrantID)
}

// SetWinner records the decision. The loser is the other slot's entrant, nil for a bye.
func (m *Match) SetWinner(winner *Entrant) {
	if m.Slot1.Holds(winner.ID) {
		m.Winner = m.Slot1.Entrant
		m.Loser = m.Slot2.Entrant
		return
	}
	m.Winner = m.Slot2.Entrant
	m.Loser = m.Slot1.Entrant
}

// ClearDecision drops winner and loser, keeping slot contents.
func (m *Match) ClearDecision() {
	m.Winner = nil
	m.Loser = nil
}

// ClearPropagatedSlots reverts every slot fed by an origin reference to unresolved.
// Seeded slots and the bye placeholder are kept.
func (m *Match) ClearPropagatedSlots() {
	if !m.Origin1.IsZero() {
		m.Slot1 = Slot{}
	}
	if m.IsBye {
		m.Slot2 = ByeSlot()
		return
	}
	if !m.Origin2.IsZero() {
		m.Slot2 = Slot{}
	}
}

// Origins returns the non-empty origin references in slot order.
func (m *Match) Origins() []Origin {
	out := make([]Origin, 0, 2)
	if !m.Origin1.IsZero() {
		out = append(out, m.Origin1)
	}
	if !m.Origin2.IsZero() {
		out = append(out, m.Origin2)
	}
	return out
}

// CanEliminate reports whether losing this match from the given slot (1 or 2) knocks
// the entrant out of the tournament.
func (m *Match) CanEliminate(slot int, resetEnabled bool) bool {
	if m.IsGrandFinal {
		if !resetEnabled {
			return true
		}
		// The reset match is fed by GF1 on both sides and eliminates either entrant.
		if m.FromMatch1 != "" && m.FromMatch1 == m.FromMatch2 {
			return true
		}
		return slot == 2
	}
	return m.Bracket == BracketLoser
}
