package brackets

import (
	"fmt"
	"math/bits"

	"github.com/Dosada05/bracket-engine/models"
)

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket sizes and pairs every round for the registry's entrants. Only WB round
// 1 holds entrants; every other slot is described by an origin reference.
func (g *DoubleEliminationGenerator) GenerateBracket(params GenerateBracketParams) (*Layout, error) {
	if params.Registry == nil || params.Registry.Len() < 2 {
		n := 0
		if params.Registry != nil {
			n = params.Registry.Len()
		}
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughEntrants, n)
	}
	n := params.Registry.Len()

	numRounds := bits.Len(uint(n - 1)) // ceil(log2 n)
	sizeOfFullBracket := 1 << numRounds
	numByes := sizeOfFullBracket - n

	wb := &models.Bracket{Name: models.BracketWinner}
	lb := &models.Bracket{Name: models.BracketLoser}
	b := &layoutBuilder{}

	// WB round 1: consecutive pairs, then one bye match per entrant in the last numByes
	// positions.
	first := b.round(wb, 1)
	for i := 0; i < n; {
		if i+1 < n-numByes {
			b.match(wb, first, func(m *models.Match) {
				m.Slot1 = models.EntrantSlot(params.Registry.at(i))
				m.Slot2 = models.EntrantSlot(params.Registry.at(i + 1))
			})
			i += 2
			continue
		}
		b.match(wb, first, func(m *models.Match) {
			m.Slot1 = models.EntrantSlot(params.Registry.at(i))
			m.Slot2 = models.ByeSlot()
			m.IsBye = true
		})
		i++
	}

	// WB rounds 2..k consume consecutive pairs of the previous round's winners.
	ref := 1
	for r := 2; r <= numRounds; r++ {
		rnd := b.round(wb, r)
		for j := 0; j < sizeOfFullBracket>>r; j++ {
			b.match(wb, rnd, func(m *models.Match) {
				m.Origin1 = winnerOf(wbID(ref))
				m.Origin2 = winnerOf(wbID(ref + 1))
			})
			ref += 2
		}
	}

	// LB round 1 takes the losers of the non-bye WB round-1 matches, which are W1..Wl.
	liveFirstRound := (n - numByes + 1) / 2
	firstLBMatches := (liveFirstRound + 1) / 2
	rnd := b.round(lb, 1)
	ref = 1
	for i := 0; i < firstLBMatches; i++ {
		if i == firstLBMatches-1 && liveFirstRound%2 == 1 {
			b.bye(lb, rnd, loserOf(wbID(ref)))
			ref++
			continue
		}
		b.pair(lb, rnd, loserOf(wbID(ref)), loserOf(wbID(ref+1)))
		ref += 2
	}

	for r := 2; r <= 2*(numRounds-1); r++ {
		prev := lb.Rounds[r-2]
		rnd := b.round(lb, r)

		lbPool := make([]models.Origin, len(prev.Matches))
		for i, m := range prev.Matches {
			lbPool[i] = winnerOf(m.ID)
		}

		if r%2 == 1 {
			// Consolidation: LB winners play each other.
			for j := 0; j < len(lbPool); j += 2 {
				if j+1 < len(lbPool) {
					b.pair(lb, rnd, lbPool[j], lbPool[j+1])
				} else {
					b.bye(lb, rnd, lbPool[j])
				}
			}
			continue
		}

		// Cross round: LB winners meet the losers dropping down from WB round r/2+1.
		wbRound := wb.Rounds[r/2]
		wbPool := make([]models.Origin, len(wbRound.Matches))
		for i, m := range wbRound.Matches {
			wbPool[i] = loserOf(m.ID)
		}
		paired := min(len(lbPool), len(wbPool))
		for j := 0; j < paired; j++ {
			b.pair(lb, rnd, lbPool[j], wbPool[j])
		}
		longer := lbPool
		if len(wbPool) > len(lbPool) {
			longer = wbPool
		}
		for _, origin := range longer[paired:] {
			b.bye(lb, rnd, origin)
		}
	}

	gf := &models.Match{
		ID:           grandFinalID(1),
		Bracket:      models.BracketGrandFinals,
		Round:        1,
		Origin1:      winnerOf(wb.LastMatch().ID),
		Origin2:      winnerOf(lb.LastMatch().ID),
		IsGrandFinal: true,
	}

	return &Layout{
		Winners:     wb,
		Losers:      lb,
		GrandFinals: &models.GrandFinals{Matches: []*models.Match{gf}, ResetEnabled: true},
	}, nil
}

// layoutBuilder hands out W#/L# ids in creation order.
type layoutBuilder struct {
	nextW, nextL int
}

func (b *layoutBuilder) round(bracket *models.Bracket, index int) *models.Round {
	rnd := &models.Round{Index: index}
	bracket.Rounds = append(bracket.Rounds, rnd)
	return rnd
}

func (b *layoutBuilder) match(bracket *models.Bracket, rnd *models.Round, fill func(m *models.Match)) *models.Match {
	m := &models.Match{Bracket: bracket.Name, Round: rnd.Index}
	if bracket.Name == models.BracketWinner {
		b.nextW++
		m.ID = wbID(b.nextW)
	} else {
		b.nextL++
		m.ID = lbID(b.nextL)
	}
	fill(m)
	rnd.Matches = append(rnd.Matches, m)
	return m
}

func (b *layoutBuilder) pair(bracket *models.Bracket, rnd *models.Round, o1, o2 models.Origin) {
	b.match(bracket, rnd, func(m *models.Match) {
		m.Origin1 = o1
		m.Origin2 = o2
	})
}

func (b *layoutBuilder) bye(bracket *models.Bracket, rnd *models.Round, o models.Origin) {
	b.match(bracket, rnd, func(m *models.Match) {
		m.Origin1 = o
		m.Slot2 = models.ByeSlot()
		m.IsBye = true
	})
}

func wbID(n int) string         { return fmt.Sprintf("W%d", n) }
func lbID(n int) string         { return fmt.Sprintf("L%d", n) }
func grandFinalID(n int) string { return fmt.Sprintf("GF%d", n) }

func winnerOf(matchID string) models.Origin {
	return models.Origin{Side: models.SideWinner, MatchID: matchID}
}

func loserOf(matchID string) models.Origin {
	return models.Origin{Side: models.SideLoser, MatchID: matchID}
}
