package brackets

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
)

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) BracketChanged(ev Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) last() Event { return r.events[len(r.events)-1] }

// playTo decides the current matches in sequence by entrant name.
func playTo(t *testing.T, tour *Tournament, winners ...string) {
	t.Helper()
	for _, name := range winners {
		cur := tour.Current()
		var id int
		for _, slot := range []models.Slot{cur.Slot1, cur.Slot2} {
			if slot.Entrant != nil && slot.Entrant.Name == name {
				id = slot.Entrant.ID
			}
		}
		require.NotZero(t, id, "%s is not in %s", name, cur.ID)
		require.NoError(t, tour.RecordWinner(id), "%s wins %s", name, cur.ID)
	}
}

// playOut decides every remaining match with pick and returns the recorded winner ids.
func playOut(t *testing.T, tour *Tournament, pick func(m *models.Match) *models.Entrant) []int {
	t.Helper()
	var played []int
	for !tour.Complete() {
		cur := tour.Current()
		require.False(t, cur.IsBye, "current match %s is a bye", cur.ID)
		require.Equal(t, models.MatchReady, cur.State(), "current match %s", cur.ID)
		winner := pick(cur)
		require.NoError(t, tour.RecordWinner(winner.ID))
		played = append(played, winner.ID)
		require.LessOrEqual(t, len(played), 2*tour.Registry().Len(), "tournament does not terminate")
	}
	return played
}

func slot1Wins(m *models.Match) *models.Entrant { return m.Slot1.Entrant }

func slot2Wins(m *models.Match) *models.Entrant { return m.Slot2.Entrant }

func TestRecordWinner_FourEntrants(t *testing.T) {
	tour := buildTournament(t, "A", "B", "C", "D")
	assert.Equal(t, "W1", tour.Current().ID)

	playTo(t, tour, "A", "C", "A")

	cur := tour.Current()
	assert.Equal(t, "L1", cur.ID)
	assert.Equal(t, "B", cur.Slot1.Entrant.Name)
	assert.Equal(t, "D", cur.Slot2.Entrant.Name)
	assert.Equal(t, "W3", tour.Last().ID)

	l2, _ := tour.Match("L2")
	assert.Nil(t, l2.Slot1.Entrant)
	assert.Equal(t, "C", l2.Slot2.Entrant.Name, "the winners' final loser drops into L2")

	gf1, _ := tour.Match("GF1")
	assert.Equal(t, "A", gf1.Slot1.Entrant.Name)
	assert.Equal(t, models.MatchPending, gf1.State())
}

func TestRecordWinner_ThreeEntrants(t *testing.T) {
	tour := buildTournament(t, "A", "B", "C")

	w2, _ := tour.Match("W2")
	assert.True(t, w2.IsBye)
	assert.Equal(t, "C", w2.Winner.Name, "a round-one bye decides itself")
	assert.Equal(t, "W1", tour.Current().ID)

	playTo(t, tour, "A")

	l1, _ := tour.Match("L1")
	assert.True(t, l1.IsBye)
	assert.Equal(t, "B", l1.Winner.Name)
	assert.Equal(t, "W3", tour.Current().ID)
	assert.Equal(t, "W1", tour.Last().ID, "byes never become the last decided match")

	playTo(t, tour, "C")
	cur := tour.Current()
	assert.Equal(t, "L2", cur.ID)
	assert.True(t, cur.Occupies(1))
	assert.True(t, cur.Occupies(2))
}

func TestRecordWinner_GrandFinalReset(t *testing.T) {
	rec := &eventRecorder{}
	tour := buildTournament(t, "A", "B", "C", "D")
	tour.SetNotifier(rec)
	playTo(t, tour, "A", "C", "A", "B", "C")

	gf1 := tour.Current()
	require.Equal(t, "GF1", gf1.ID)
	assert.Equal(t, "A", gf1.Slot1.Entrant.Name)
	assert.Equal(t, "C", gf1.Slot2.Entrant.Name)

	playTo(t, tour, "C")
	ev := rec.last()
	assert.Equal(t, EventMatchDecided, ev.Kind)
	assert.Equal(t, []string{"GF2"}, ev.Added)
	assert.Equal(t, "GF2", ev.CurrentID)

	gf2 := tour.Current()
	require.Equal(t, "GF2", gf2.ID)
	assert.Equal(t, "C", gf2.Slot1.Entrant.Name, "entrants swap sides in the reset match")
	assert.Equal(t, "A", gf2.Slot2.Entrant.Name)
	assert.Equal(t, "GF2", gf1.AdvanceWinnerTo)
	assert.Equal(t, "GF2", gf1.AdvanceLoserTo)
	assert.Len(t, tour.GrandFinals().Matches, 2)
	assert.False(t, tour.Complete())

	playTo(t, tour, "A")
	assert.True(t, tour.Complete())
	assert.Equal(t, "A", tour.Champion().Name)
	assert.Equal(t, "GF2", tour.Last().ID)
	assert.Len(t, tour.GrandFinals().Matches, 2, "only one reset match is ever created")
}

func TestRecordWinner_GrandFinalWithoutReset(t *testing.T) {
	tour := buildTournament(t, "A", "B", "C", "D")
	playTo(t, tour, "A", "C", "A", "B", "C", "A")

	assert.True(t, tour.Complete())
	assert.Equal(t, "A", tour.Champion().Name)
	assert.Len(t, tour.GrandFinals().Matches, 1)
	_, ok := tour.Match("GF2")
	assert.False(t, ok)
}

func TestRecordWinner_ResetDisabled(t *testing.T) {
	reg, layout := smallLayout(t, nil)
	layout.GrandFinals.ResetEnabled = false
	tour, err := New("No Reset", reg, layout)
	require.NoError(t, err)

	playTo(t, tour, "A", "C", "A", "B", "C", "C")
	assert.True(t, tour.Complete())
	assert.Equal(t, "C", tour.Champion().Name)
	assert.Len(t, tour.GrandFinals().Matches, 1)
}

func TestRecordWinner_ContractViolations(t *testing.T) {
	tour := buildTournament(t, "A", "B", "C", "D")
	before := tour.View()

	for _, id := range []int{4, 99, 0} {
		err := tour.RecordWinner(id)
		assert.ErrorIs(t, err, ErrNotInMatch, "entrant %d", id)
		assert.True(t, errors.Is(err, ErrContractViolation))
	}
	assert.Equal(t, before, tour.View(), "a rejected call leaves the graph untouched")

	playTo(t, tour, "A", "C", "A", "B", "C", "A")
	done := tour.View()
	err := tour.RecordWinner(1)
	assert.ErrorIs(t, err, ErrTournamentComplete)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, done, tour.View())
}

func TestRecordWinner_NotReady(t *testing.T) {
	reg := RegistryFromNames([]string{"A", "B", "C"})
	e := func(id int) *models.Entrant {
		ent, _ := reg.Lookup(id)
		return ent
	}
	// L1 waits on the loser of a bye, which never exists.
	layout := &Layout{
		Winners: &models.Bracket{Name: models.BracketWinner, Rounds: []*models.Round{{Index: 1, Matches: []*models.Match{
			{ID: "W1", Slot1: models.EntrantSlot(e(1)), Slot2: models.ByeSlot(), IsBye: true},
			{ID: "W2", Slot1: models.EntrantSlot(e(2)), Slot2: models.EntrantSlot(e(3))},
		}}}},
		Losers: &models.Bracket{Name: models.BracketLoser, Rounds: []*models.Round{{Index: 1, Matches: []*models.Match{
			{ID: "L1", Origin1: loserOf("W1"), Origin2: loserOf("W2")},
		}}}},
		GrandFinals: &models.GrandFinals{ResetEnabled: true, Matches: []*models.Match{
			{ID: "GF1", Origin1: winnerOf("W2"), Origin2: winnerOf("L1")},
		}},
	}
	tour, err := New("Stuck", reg, layout)
	require.NoError(t, err)

	playTo(t, tour, "B")
	cur := tour.Current()
	require.Equal(t, "L1", cur.ID)
	assert.Equal(t, models.MatchPending, cur.State())

	err = tour.RecordWinner(3)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestReset(t *testing.T) {
	rec := &eventRecorder{}
	tour := buildTournament(t, "A", "B", "C", "D")
	fresh := tour.View()
	tour.SetNotifier(rec)

	playTo(t, tour, "A", "C", "A", "B", "C", "C")
	require.Equal(t, "GF2", tour.Current().ID)

	tour.Reset()

	ev := rec.last()
	assert.Equal(t, EventReset, ev.Kind)
	assert.Equal(t, []string{"GF2"}, ev.Removed)
	assert.Equal(t, "W1", ev.CurrentID)
	assert.Empty(t, ev.LastID)

	assert.Equal(t, "W1", tour.Current().ID)
	assert.Nil(t, tour.Last())
	assert.Len(t, tour.GrandFinals().Matches, 1)
	_, ok := tour.Match("GF2")
	assert.False(t, ok)
	assert.Zero(t, tour.DecidedCount())
	assert.Equal(t, fresh, tour.View(), "reset restores the unplayed bracket")
}

func TestReset_ReplayIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{2, 3, 5, 7, 8, 12, 17, 23, 32} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tour := buildTournament(t, entrantNames(n)...)
			played := playOut(t, tour, func(m *models.Match) *models.Entrant {
				if rng.Intn(2) == 0 {
					return m.Slot1.Entrant
				}
				return m.Slot2.Entrant
			})
			first := tour.View()

			tour.Reset()
			for _, id := range played {
				require.NoError(t, tour.RecordWinner(id))
			}
			assert.Equal(t, first, tour.View())
		})
	}
}

func TestPlayThrough_DecisionCounts(t *testing.T) {
	for n := 2; n <= 40; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tour := buildTournament(t, entrantNames(n)...)
			played := playOut(t, tour, slot1Wins)
			assert.Len(t, played, 2*n-2, "the winners' bracket champion never drops a match")
			assert.Len(t, tour.GrandFinals().Matches, 1)
			assert.Equal(t, len(played), tour.DecidedCount())

			tour = buildTournament(t, entrantNames(n)...)
			played = playOut(t, tour, slot2Wins)
			assert.Len(t, played, 2*n-1)
			assert.Len(t, tour.GrandFinals().Matches, 2)
			assert.Equal(t, tour.Current().Winner, tour.Champion())
		})
	}
}

func TestPlayThrough_EveryEntrantButOneLosesTwice(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{4, 6, 9, 16, 21} {
		tour := buildTournament(t, entrantNames(n)...)
		playOut(t, tour, func(m *models.Match) *models.Entrant {
			if rng.Intn(2) == 0 {
				return m.Slot1.Entrant
			}
			return m.Slot2.Entrant
		})

		losses := map[int]int{}
		for _, m := range tour.Order() {
			if m.Loser != nil {
				losses[m.Loser.ID]++
			}
		}
		champion := tour.Champion()
		require.NotNil(t, champion)
		for _, e := range tour.Registry().Entrants() {
			if e.ID == champion.ID {
				assert.LessOrEqual(t, losses[e.ID], 1, "n=%d champion", n)
				continue
			}
			assert.Equal(t, 2, losses[e.ID], "n=%d entrant %s", n, e.Name)
		}
	}
}

func TestNotifier(t *testing.T) {
	rec := &eventRecorder{}
	tour := buildTournament(t, "A", "B", "C", "D")
	tour.SetNotifier(rec)

	tour.NotifyLoaded()
	require.Len(t, rec.events, 1)
	assert.Equal(t, Event{Kind: EventLoaded, CurrentID: "W1"}, rec.events[0])

	playTo(t, tour, "A")
	require.Len(t, rec.events, 2)
	assert.Equal(t, Event{Kind: EventMatchDecided, MatchID: "W1", WinnerID: 1, CurrentID: "W2", LastID: "W1"}, rec.events[1])

	_ = tour.RecordWinner(1)
	assert.Len(t, rec.events, 2, "rejected calls do not notify")

	tour.SetNotifier(nil)
	playTo(t, tour, "C")
	assert.Len(t, rec.events, 2)
}
