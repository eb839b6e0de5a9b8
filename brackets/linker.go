package brackets

import (
	"fmt"
	"strings"

	"github.com/Dosada05/bracket-engine/models"
)

// ParseOrigin reads the persisted "side:matchId" form. An empty string is the zero
// Origin (slot seeded directly).
func ParseOrigin(raw string) (models.Origin, error) {
	if raw == "" {
		return models.Origin{}, nil
	}
	side, matchID, ok := strings.Cut(raw, ":")
	if !ok || matchID == "" || strings.Contains(matchID, ":") {
		return models.Origin{}, fmt.Errorf("%w: %q", ErrMalformedReference, raw)
	}
	switch models.Side(side) {
	case models.SideWinner, models.SideLoser:
		return models.Origin{Side: models.Side(side), MatchID: matchID}, nil
	default:
		return models.Origin{}, fmt.Errorf("%w: %q has unknown side %q", ErrMalformedReference, raw, side)
	}
}

// link wires every origin reference into a back-reference on the consuming match and
// the matching forward reference on the source match.
func (t *Tournament) link() error {
	for _, id := range t.ids {
		m := t.matches[id]
		if err := checkSlots(m); err != nil {
			return err
		}
		for slot, origin := range []models.Origin{m.Origin1, m.Origin2} {
			if origin.IsZero() {
				continue
			}
			if origin.Side != models.SideWinner && origin.Side != models.SideLoser || origin.MatchID == "" {
				return fmt.Errorf("%w: match %s slot %d: %q", ErrMalformedReference, m.ID, slot+1, origin.String())
			}
			src, ok := t.matches[origin.MatchID]
			if !ok {
				return fmt.Errorf("%w: match %s slot %d references %s", ErrUnknownMatch, m.ID, slot+1, origin.MatchID)
			}
			if origin.Side == models.SideLoser && src.IsBye {
				return fmt.Errorf("%w: match %s slot %d takes the loser of bye match %s", ErrMalformedReference, m.ID, slot+1, src.ID)
			}
			if slot == 0 {
				m.FromMatch1 = src.ID
			} else {
				m.FromMatch2 = src.ID
			}

			forward := &src.AdvanceWinnerTo
			if origin.Side == models.SideLoser {
				forward = &src.AdvanceLoserTo
			}
			if *forward != "" && *forward != m.ID {
				return fmt.Errorf("%w: %s of %s is consumed by both %s and %s", ErrMalformedReference, origin.Side, src.ID, *forward, m.ID)
			}
			*forward = m.ID
		}
	}
	return t.checkGrandFinal()
}

// checkSlots enforces that every slot is either seeded, the bye placeholder of a bye
// match, or fed by an origin reference.
func checkSlots(m *models.Match) error {
	if m.Origin1.IsZero() && m.Slot1.Entrant == nil {
		return fmt.Errorf("%w: match %s slot 1 has neither an entrant nor an origin", ErrMalformedReference, m.ID)
	}
	if !m.Origin1.IsZero() && m.Origin1 == m.Origin2 {
		return fmt.Errorf("%w: match %s takes %q in both slots", ErrMalformedReference, m.ID, m.Origin1.String())
	}
	if m.IsBye {
		if !m.Origin2.IsZero() {
			return fmt.Errorf("%w: bye match %s has a second origin", ErrMalformedReference, m.ID)
		}
		return nil
	}
	if m.Origin2.IsZero() && m.Slot2.Entrant == nil {
		return fmt.Errorf("%w: match %s slot 2 has neither an entrant nor an origin", ErrMalformedReference, m.ID)
	}
	return nil
}

// checkGrandFinal asserts the slot-2 convention the reset rule relies on.
func (t *Tournament) checkGrandFinal() error {
	if len(t.grandFinals.Matches) == 0 {
		return fmt.Errorf("%w: no grand final match", ErrGrandFinalSlot)
	}
	gf1 := t.grandFinals.Matches[0]
	src, ok := t.matches[gf1.Origin2.MatchID]
	if gf1.Origin2.Side != models.SideWinner || !ok || src.Bracket != models.BracketLoser {
		return fmt.Errorf("%w: %s slot 2 is %q", ErrGrandFinalSlot, gf1.ID, gf1.Origin2.String())
	}
	return nil
}

// resolve fills m's unresolved slots from its origin matches and returns m's loser, nil
// while it is undetermined. Origin matches that can still yield an entrant are resolved
// first, depth first, with an explicit stack; nothing else is walked. Settled matches
// return immediately, so calling it again on a resolved match is a no-op.
func (t *Tournament) resolve(m *models.Match) *models.Entrant {
	type frame struct {
		match    *models.Match
		expanded bool
	}

	visited := map[string]bool{}
	stack := []frame{{match: m}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		cur := top.match
		if settled(cur) {
			stack = stack[:len(stack)-1]
			continue
		}
		if !top.expanded {
			top.expanded = true
			visited[cur.ID] = true
			for _, src := range t.pendingSources(cur) {
				if !visited[src.ID] {
					stack = append(stack, frame{match: src})
				}
			}
			continue
		}
		stack = stack[:len(stack)-1]
		t.fill(cur)
	}
	return m.Loser
}

// settled: decided with both slots known, so its outcome can never change again.
func settled(m *models.Match) bool {
	return m.Winner != nil && m.Slot1.Resolved() && m.Slot2.Resolved()
}

// pendingSources lists the origin matches whose resolution can still change what m
// receives: an undecided bye (it decides itself once its slot is known) feeding a
// winner slot, and a decided match whose loser is not yet known feeding a loser slot.
func (t *Tournament) pendingSources(m *models.Match) []*models.Match {
	var out []*models.Match
	for _, p := range []struct {
		slot   models.Slot
		origin models.Origin
	}{{m.Slot1, m.Origin1}, {m.Slot2, m.Origin2}} {
		if p.slot.Resolved() || p.origin.IsZero() {
			continue
		}
		src := t.matches[p.origin.MatchID]
		switch p.origin.Side {
		case models.SideWinner:
			if src.Winner == nil && src.IsBye {
				out = append(out, src)
			}
		case models.SideLoser:
			if src.Winner != nil && src.Loser == nil {
				out = append(out, src)
			}
		}
	}
	return out
}

// fill copies whatever its sources already know into m. A bye match decides itself as
// soon as its real slot is known.
func (t *Tournament) fill(m *models.Match) {
	t.fillSlot(&m.Slot1, m.Origin1)
	t.fillSlot(&m.Slot2, m.Origin2)

	if m.IsBye {
		if m.Winner == nil && m.Slot1.Entrant != nil {
			m.Winner = m.Slot1.Entrant
			m.Loser = nil
		}
		return
	}
	if m.Winner != nil && m.Loser == nil && m.Slot1.Entrant != nil && m.Slot2.Entrant != nil && m.Occupies(m.Winner.ID) {
		m.SetWinner(m.Winner)
	}
}

func (t *Tournament) fillSlot(slot *models.Slot, origin models.Origin) {
	if slot.Resolved() || origin.IsZero() {
		return
	}
	src := t.matches[origin.MatchID]
	switch origin.Side {
	case models.SideWinner:
		slot.Entrant = src.Winner
	case models.SideLoser:
		slot.Entrant = src.Loser
	}
}

// resolveAll runs resolution over every match in play order.
func (t *Tournament) resolveAll() {
	for _, m := range t.order {
		t.resolve(m)
	}
}
