package brackets

import (
	"github.com/Dosada05/bracket-engine/models"
)

// MatchView is a detached copy of a match plus what a renderer needs to draw it.
type MatchView struct {
	models.Match
	State         models.MatchState `json:"state"`
	Player1Label  string            `json:"player1_label"`
	Player2Label  string            `json:"player2_label"`
	Eliminates1   bool              `json:"eliminates_player1"`
	Eliminates2   bool              `json:"eliminates_player2"`
	IsCurrent     bool              `json:"is_current"`
	IsLastDecided bool              `json:"is_last"`
}

type RoundView struct {
	Round   int         `json:"round"`
	Matches []MatchView `json:"matches"`
}

// View is a read-only snapshot of the whole tournament, safe to serialize and to hand
// to another goroutine.
type View struct {
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Entrants     []models.Entrant `json:"entrants"`
	Winners      []RoundView      `json:"winners"`
	Losers       []RoundView      `json:"losers"`
	GrandFinals  []MatchView      `json:"grand_finals"`
	ResetEnabled bool             `json:"reset"`
	Order        []string         `json:"order"`
	CurrentID    string           `json:"current"`
	LastID       string           `json:"last,omitempty"`
	Complete     bool             `json:"complete"`
	Champion     *models.Entrant  `json:"champion,omitempty"`
}

func (t *Tournament) View() *View {
	v := &View{
		Name:         t.Name,
		Type:         t.Type,
		Entrants:     t.registry.Entrants(),
		Winners:      t.roundViews(t.winners),
		Losers:       t.roundViews(t.losers),
		ResetEnabled: t.grandFinals.ResetEnabled,
		Order:        make([]string, len(t.order)),
		CurrentID:    t.Current().ID,
		Complete:     t.Complete(),
		Champion:     t.Champion(),
	}
	if t.last != nil {
		v.LastID = t.last.ID
	}
	for i, m := range t.order {
		v.Order[i] = m.ID
	}
	for _, m := range t.grandFinals.Matches {
		v.GrandFinals = append(v.GrandFinals, t.matchView(m))
	}
	return v
}

func (t *Tournament) roundViews(b *models.Bracket) []RoundView {
	out := make([]RoundView, len(b.Rounds))
	for i, rnd := range b.Rounds {
		out[i] = RoundView{Round: rnd.Index, Matches: make([]MatchView, len(rnd.Matches))}
		for j, m := range rnd.Matches {
			out[i].Matches[j] = t.matchView(m)
		}
	}
	return out
}

func (t *Tournament) matchView(m *models.Match) MatchView {
	reset := t.grandFinals.ResetEnabled
	return MatchView{
		Match:         *m,
		State:         m.State(),
		Player1Label:  m.Slot1.Label(),
		Player2Label:  m.Slot2.Label(),
		Eliminates1:   m.CanEliminate(1, reset),
		Eliminates2:   m.CanEliminate(2, reset),
		IsCurrent:     m == t.Current() && !t.Complete(),
		IsLastDecided: m == t.last,
	}
}
