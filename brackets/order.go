package brackets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/Dosada05/bracket-engine/models"
)

// computeOrder peels the origin graph topologically. Among the matches whose origin
// matches are all ordered it always takes the smallest (bracket, round, id) key.
func (t *Tournament) computeOrder() ([]*models.Match, error) {
	waiting := make(map[string]int, len(t.matches))
	dependents := make(map[string][]*models.Match, len(t.matches))
	ready := priorityqueue.NewWith(compareMatches)

	for _, id := range t.ids {
		m := t.matches[id]
		sources := map[string]bool{}
		for _, origin := range m.Origins() {
			sources[origin.MatchID] = true
		}
		for src := range sources {
			dependents[src] = append(dependents[src], m)
		}
		waiting[m.ID] = len(sources)
		if len(sources) == 0 {
			ready.Enqueue(m)
		}
	}

	order := make([]*models.Match, 0, len(t.matches))
	for !ready.Empty() {
		v, _ := ready.Dequeue()
		m := v.(*models.Match)
		order = append(order, m)
		for _, dep := range dependents[m.ID] {
			waiting[dep.ID]--
			if waiting[dep.ID] == 0 {
				ready.Enqueue(dep)
			}
		}
	}

	if len(order) < len(t.matches) {
		var stuck []string
		for id, n := range waiting {
			if n > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: unorderable matches %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

func compareMatches(a, b interface{}) int {
	ma, mb := a.(*models.Match), b.(*models.Match)
	if d := ma.Bracket.Precedence() - mb.Bracket.Precedence(); d != 0 {
		return d
	}
	if d := ma.Round - mb.Round; d != 0 {
		return d
	}
	return compareIDs(ma.ID, mb.ID)
}

// compareIDs orders "W9" before "W10": prefix first, then the numeric suffix.
func compareIDs(a, b string) int {
	pa, na := splitID(a)
	pb, nb := splitID(b)
	if pa != pb {
		return strings.Compare(pa, pb)
	}
	if na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitID(id string) (string, int) {
	i := strings.IndexFunc(id, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return id, 0
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return id, 0
	}
	return id[:i], n
}
