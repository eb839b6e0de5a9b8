package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// RecordWinner decides the current match for the given entrant, propagates both halves
// of the outcome, creates the reset match when the losers'-bracket entrant takes GF1,
// and advances the cursor. Illegal calls return an error wrapping ErrContractViolation
// and leave the graph untouched.
func (t *Tournament) RecordWinner(entrantID int) error {
	cur := t.Current()
	if t.Complete() {
		return ErrTournamentComplete
	}
	if cur.State() != models.MatchReady {
		return fmt.Errorf("%w: %s is %s", ErrNotReady, cur.ID, cur.State())
	}
	if !cur.Occupies(entrantID) {
		return fmt.Errorf("%w: entrant %d, match %s", ErrNotInMatch, entrantID, cur.ID)
	}
	winner, ok := t.registry.Lookup(entrantID)
	if !ok {
		return fmt.Errorf("%w: entrant %d", ErrNotInMatch, entrantID)
	}

	cur.SetWinner(winner)

	ev := Event{Kind: EventMatchDecided, MatchID: cur.ID, WinnerID: winner.ID}
	if t.needsResetMatch(cur) {
		gf2 := t.appendResetMatch(cur)
		ev.Added = append(ev.Added, gf2.ID)
	}

	t.propagate(cur)

	t.last = cur
	t.seekCurrent(t.cursor + 1)
	t.notify(ev)
	return nil
}

// needsResetMatch: GF1 was just taken by the entrant in slot 2, who by construction is
// the losers'-bracket finalist.
func (t *Tournament) needsResetMatch(m *models.Match) bool {
	gf := t.grandFinals
	return gf.ResetEnabled &&
		len(gf.Matches) == 1 &&
		gf.Matches[0] == m &&
		m.Winner != nil &&
		m.Slot2.Holds(m.Winner.ID)
}

// appendResetMatch creates GF2 with GF1's entrants swapped. GF2 is terminal.
func (t *Tournament) appendResetMatch(gf1 *models.Match) *models.Match {
	gf2 := &models.Match{
		ID:           grandFinalID(len(t.grandFinals.Matches) + 1),
		Bracket:      models.BracketGrandFinals,
		Round:        gf1.Round + 1,
		Slot1:        gf1.Slot2,
		Slot2:        gf1.Slot1,
		Origin1:      winnerOf(gf1.ID),
		Origin2:      loserOf(gf1.ID),
		FromMatch1:   gf1.ID,
		FromMatch2:   gf1.ID,
		IsGrandFinal: true,
	}
	gf1.AdvanceWinnerTo = gf2.ID
	gf1.AdvanceLoserTo = gf2.ID

	t.grandFinals.Matches = append(t.grandFinals.Matches, gf2)
	t.matches[gf2.ID] = gf2
	t.ids = append(t.ids, gf2.ID)
	t.order = append(t.order, gf2)
	return gf2
}

// propagate re-resolves the consumers of a decided match. A consumer that decides itself
// on resolution (a bye) cascades to its own consumers.
func (t *Tournament) propagate(from *models.Match) {
	queue := []string{from.AdvanceWinnerTo, from.AdvanceLoserTo}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" {
			continue
		}
		next := t.matches[id]
		wasDecided := next.Winner != nil
		t.resolve(next)
		if !wasDecided && next.Winner != nil {
			queue = append(queue, next.AdvanceWinnerTo, next.AdvanceLoserTo)
		}
	}
}

// seekCurrent moves the cursor to the first match at or after start that is neither a
// bye nor decided. When none remains the cursor rests on the final match.
func (t *Tournament) seekCurrent(start int) {
	for i := start; i < len(t.order); i++ {
		m := t.order[i]
		if m.IsBye || m.Winner != nil {
			continue
		}
		if !m.Slot1.Resolved() || !m.Slot2.Resolved() {
			t.resolve(m)
		}
		t.cursor = i
		return
	}
	t.cursor = len(t.order) - 1
}

func (t *Tournament) lastDecidedBefore(idx int) *models.Match {
	for i := idx - 1; i >= 0; i-- {
		if m := t.order[i]; !m.IsBye && m.Winner != nil {
			return m
		}
	}
	return nil
}

// Reset returns the tournament to its unplayed state: decisions and propagated slots are
// cleared, the reset match is removed, and byes re-resolve. Structure is kept.
func (t *Tournament) Reset() {
	for _, bracket := range []*models.Bracket{t.winners, t.losers} {
		for _, rnd := range bracket.Rounds {
			for _, m := range rnd.Matches {
				m.ClearDecision()
				m.ClearPropagatedSlots()
			}
		}
	}

	var removed []string
	for _, m := range t.grandFinals.Matches[1:] {
		delete(t.matches, m.ID)
		removed = append(removed, m.ID)
	}
	gf1 := t.grandFinals.Matches[0]
	t.grandFinals.Matches = t.grandFinals.Matches[:1]
	gf1.ClearDecision()
	gf1.ClearPropagatedSlots()
	if len(removed) > 0 {
		gf1.AdvanceWinnerTo = ""
		gf1.AdvanceLoserTo = ""
		t.ids = keepKnown(t.ids, t.matches)
		order := t.order[:0]
		for _, m := range t.order {
			if _, ok := t.matches[m.ID]; ok {
				order = append(order, m)
			}
		}
		t.order = order
	}

	t.resolveAll()
	t.last = nil
	t.seekCurrent(0)
	t.notify(Event{Kind: EventReset, Removed: removed})
}

func keepKnown(ids []string, matches map[string]*models.Match) []string {
	out := ids[:0]
	for _, id := range ids {
		if _, ok := matches[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
