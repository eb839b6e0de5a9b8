package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

const TypeDoubleElimination = "double_elimination"

// Tournament owns every match of a double-elimination bracket, the play order and the
// current/last cursors. It is not safe for concurrent use; callers serialize access.
type Tournament struct {
	Name string
	Type string

	registry    *Registry
	winners     *models.Bracket
	losers      *models.Bracket
	grandFinals *models.GrandFinals

	matches map[string]*models.Match
	ids     []string // registration order, for deterministic walks
	order   []*models.Match

	cursor int
	last   *models.Match

	notifier Notifier
}

// Build generates a fresh, unplayed bracket for the registry's entrants.
func Build(name string, registry *Registry) (*Tournament, error) {
	layout, err := NewDoubleEliminationGenerator().GenerateBracket(GenerateBracketParams{Registry: registry})
	if err != nil {
		return nil, err
	}
	return New(name, registry, layout)
}

// New links a layout into a playable tournament. Layouts may carry recorded winners
// (loaded snapshots); they are validated against the resolved slots.
func New(name string, registry *Registry, layout *Layout) (*Tournament, error) {
	if registry == nil || layout == nil || layout.Winners == nil || layout.Losers == nil || layout.GrandFinals == nil {
		return nil, fmt.Errorf("%w: incomplete layout", ErrMalformedReference)
	}
	t := &Tournament{
		Name:        name,
		Type:        TypeDoubleElimination,
		registry:    registry,
		winners:     layout.Winners,
		losers:      layout.Losers,
		grandFinals: layout.GrandFinals,
		matches:     make(map[string]*models.Match),
	}

	for _, bracket := range []*models.Bracket{t.winners, t.losers} {
		for _, rnd := range bracket.Rounds {
			for _, m := range rnd.Matches {
				m.Bracket = bracket.Name
				m.Round = rnd.Index
				if err := t.register(m); err != nil {
					return nil, err
				}
			}
		}
	}
	for i, m := range t.grandFinals.Matches {
		m.Bracket = models.BracketGrandFinals
		m.Round = i + 1
		m.IsGrandFinal = true
		if err := t.register(m); err != nil {
			return nil, err
		}
	}

	if err := t.link(); err != nil {
		return nil, err
	}
	order, err := t.computeOrder()
	if err != nil {
		return nil, err
	}
	t.order = order
	t.resolveAll()
	if err := t.checkWinners(); err != nil {
		return nil, err
	}
	if gf1 := t.grandFinals.Matches[0]; t.needsResetMatch(gf1) {
		t.appendResetMatch(gf1)
	}

	t.seekCurrent(0)
	end := t.cursor
	if t.Complete() {
		end = len(t.order)
	}
	t.last = t.lastDecidedBefore(end)
	return t, nil
}

func (t *Tournament) register(m *models.Match) error {
	if m.ID == "" {
		return fmt.Errorf("%w: empty match id", ErrMalformedReference)
	}
	if _, ok := t.matches[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMatch, m.ID)
	}
	t.matches[m.ID] = m
	t.ids = append(t.ids, m.ID)

	// Seeded matches never go through resolution, so a loaded winner gets its loser here.
	if m.Winner != nil && m.Loser == nil && !m.IsBye && m.Slot1.Entrant != nil && m.Slot2.Entrant != nil && m.Occupies(m.Winner.ID) {
		m.SetWinner(m.Winner)
	}
	return nil
}

// checkWinners rejects recorded winners that cannot be reconciled with the graph.
func (t *Tournament) checkWinners() error {
	for _, id := range t.ids {
		m := t.matches[id]
		if m.Winner == nil {
			continue
		}
		if !m.Slot1.Resolved() || !m.Slot2.Resolved() || !m.Occupies(m.Winner.ID) {
			return fmt.Errorf("%w: match %s winner %d", ErrInconsistentWinner, m.ID, m.Winner.ID)
		}
	}
	if len(t.grandFinals.Matches) > 2 {
		return fmt.Errorf("%w: %d grand final matches", ErrGrandFinalSlot, len(t.grandFinals.Matches))
	}
	if len(t.grandFinals.Matches) == 2 {
		gf1 := t.grandFinals.Matches[0]
		if !t.grandFinals.ResetEnabled || gf1.Winner == nil || !gf1.Slot2.Holds(gf1.Winner.ID) {
			return fmt.Errorf("%w: reset match present without a losers' bracket win in %s", ErrGrandFinalSlot, gf1.ID)
		}
	}
	return nil
}

func (t *Tournament) Registry() *Registry { return t.registry }

// The accessors below expose the live graph for read-only traversal. Callers must not
// modify what they return; use View for a detached copy.

func (t *Tournament) Winners() *models.Bracket { return t.winners }

func (t *Tournament) Losers() *models.Bracket { return t.losers }

func (t *Tournament) GrandFinals() *models.GrandFinals { return t.grandFinals }

func (t *Tournament) Match(id string) (*models.Match, bool) {
	m, ok := t.matches[id]
	return m, ok
}

// Order returns the play order.
func (t *Tournament) Order() []*models.Match {
	out := make([]*models.Match, len(t.order))
	copy(out, t.order)
	return out
}

// Current is the next match to play, or the final match once the tournament is over.
func (t *Tournament) Current() *models.Match { return t.order[t.cursor] }

// Last is the most recently decided match, nil before the first decision.
func (t *Tournament) Last() *models.Match { return t.last }

func (t *Tournament) Complete() bool { return t.Current().Winner != nil }

// Champion returns the tournament winner once complete.
func (t *Tournament) Champion() *models.Entrant {
	if !t.Complete() {
		return nil
	}
	return t.Current().Winner
}

// SetNotifier installs the change-notification call-out. A nil notifier disables it.
func (t *Tournament) SetNotifier(n Notifier) { t.notifier = n }

// NotifyLoaded tells the notifier that this tournament replaced whatever it showed before.
func (t *Tournament) NotifyLoaded() { t.notify(Event{Kind: EventLoaded}) }

// DecidedCount counts played matches; byes are not counted.
func (t *Tournament) DecidedCount() int {
	n := 0
	for _, m := range t.order {
		if !m.IsBye && m.Winner != nil {
			n++
		}
	}
	return n
}

func (t *Tournament) notify(ev Event) {
	if t.notifier == nil {
		return
	}
	ev.CurrentID = t.Current().ID
	if t.last != nil {
		ev.LastID = t.last.ID
	}
	t.notifier.BracketChanged(ev)
}
