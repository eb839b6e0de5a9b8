package storage

import (
	"fmt"
	"strings"

	"github.com/Dosada05/bracket-engine/brackets"
)

// Seed is the plain-text tournament form: a name line followed by one line of
// comma-separated entrant names.
type Seed struct {
	Name     string
	Entrants []string
}

func ParseSeed(data []byte) (*Seed, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: expected a name line and an entrant line", ErrMalformedSeed)
	}
	name := strings.TrimSpace(lines[0])
	if name == "" {
		return nil, fmt.Errorf("%w: empty tournament name", ErrMalformedSeed)
	}
	seed := &Seed{Name: name}
	for i, raw := range strings.Split(lines[1], ",") {
		entrant := strings.TrimSpace(raw)
		if entrant == "" {
			return nil, fmt.Errorf("%w: entrant %d has an empty name", ErrMalformedSeed, i+1)
		}
		seed.Entrants = append(seed.Entrants, entrant)
	}
	return seed, nil
}

func (s *Seed) String() string {
	return s.Name + "\n" + strings.Join(s.Entrants, ",") + "\n"
}

// BuildFromSeed generates a fresh bracket from the seed, numbering entrants 1..n.
func BuildFromSeed(data []byte) (*brackets.Tournament, error) {
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	return brackets.Build(seed.Name, brackets.RegistryFromNames(seed.Entrants))
}
