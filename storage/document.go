package storage

import (
	"bytes"
	"fmt"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"gopkg.in/yaml.v3"
)

// Document is the persisted form of a tournament.
type Document struct {
	Tournament  TournamentDoc         `yaml:"tournament"`
	Players     []PlayerDoc           `yaml:"players"`
	Brackets    map[string]BracketDoc `yaml:"brackets"`
	GrandFinals GrandFinalsDoc        `yaml:"grand_finals"`
}

type TournamentDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type PlayerDoc struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type BracketDoc struct {
	Rounds []RoundDoc `yaml:"rounds"`
}

type RoundDoc struct {
	Round   int        `yaml:"round"`
	Matches []MatchDoc `yaml:"matches"`
}

type GrandFinalsDoc struct {
	Matches []MatchDoc `yaml:"matches"`
	Reset   bool       `yaml:"reset"`
}

// MatchDoc comes in two shapes: seeded matches carry player ids (0 for the bye slot),
// propagated matches carry "side:matchId" references ("" for the bye slot).
type MatchDoc struct {
	ID          string  `yaml:"id"`
	Player1     *int    `yaml:"player1,omitempty"`
	Player2     *int    `yaml:"player2,omitempty"`
	Player1From *string `yaml:"player1_from,omitempty"`
	Player2From *string `yaml:"player2_from,omitempty"`
	Winner      int     `yaml:"winner"`
	Bye         bool    `yaml:"bye"`
}

// EncodeDocument renders the document as YAML.
func EncodeDocument(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode tournament document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode tournament document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses YAML strictly; unknown keys are rejected.
func DecodeDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrMalformedDocument)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// Export captures structure, seeds and recorded winners. Propagated slot contents are
// not stored; they are re-derived on import.
func Export(t *brackets.Tournament) *Document {
	doc := &Document{
		Tournament: TournamentDoc{Name: t.Name, Type: t.Type},
		Brackets:   make(map[string]BracketDoc, 2),
		GrandFinals: GrandFinalsDoc{
			Reset: t.GrandFinals().ResetEnabled,
		},
	}
	for _, e := range t.Registry().Entrants() {
		doc.Players = append(doc.Players, PlayerDoc{ID: e.ID, Name: e.Name})
	}
	for _, b := range []*models.Bracket{t.Winners(), t.Losers()} {
		bd := BracketDoc{Rounds: make([]RoundDoc, 0, len(b.Rounds))}
		for _, rnd := range b.Rounds {
			rd := RoundDoc{Round: rnd.Index, Matches: make([]MatchDoc, 0, len(rnd.Matches))}
			for _, m := range rnd.Matches {
				rd.Matches = append(rd.Matches, exportMatch(m))
			}
			bd.Rounds = append(bd.Rounds, rd)
		}
		doc.Brackets[string(b.Name)] = bd
	}
	for _, m := range t.GrandFinals().Matches {
		doc.GrandFinals.Matches = append(doc.GrandFinals.Matches, exportMatch(m))
	}
	return doc
}

func exportMatch(m *models.Match) MatchDoc {
	md := MatchDoc{ID: m.ID, Bye: m.IsBye}
	if m.Winner != nil {
		md.Winner = m.Winner.ID
	}

	if m.Origin1.IsZero() {
		md.Player1 = intPtr(entrantID(m.Slot1))
	} else {
		md.Player1From = strPtr(m.Origin1.String())
	}

	switch {
	case !m.Origin2.IsZero():
		md.Player2From = strPtr(m.Origin2.String())
	case !m.Origin1.IsZero() && m.IsBye:
		md.Player2From = strPtr("")
	default:
		md.Player2 = intPtr(entrantID(m.Slot2))
	}
	return md
}

// Import rebuilds a tournament from a document. Every failure is fatal and nothing is
// returned.
func Import(doc *Document) (*brackets.Tournament, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedDocument)
	}
	if doc.Tournament.Type != brackets.TypeDoubleElimination {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, doc.Tournament.Type)
	}

	entrants := make([]models.Entrant, len(doc.Players))
	for i, p := range doc.Players {
		entrants[i] = models.Entrant{ID: p.ID, Name: p.Name}
	}
	registry, err := brackets.NewRegistry(entrants)
	if err != nil {
		return nil, err
	}

	for name := range doc.Brackets {
		if name != string(models.BracketWinner) && name != string(models.BracketLoser) {
			return nil, fmt.Errorf("%w: unknown bracket %q", ErrMalformedDocument, name)
		}
	}
	layout := &brackets.Layout{
		GrandFinals: &models.GrandFinals{ResetEnabled: doc.GrandFinals.Reset},
	}
	if layout.Winners, err = importBracket(doc, models.BracketWinner, registry); err != nil {
		return nil, err
	}
	if layout.Losers, err = importBracket(doc, models.BracketLoser, registry); err != nil {
		return nil, err
	}
	for _, md := range doc.GrandFinals.Matches {
		m, err := importMatch(md, registry)
		if err != nil {
			return nil, err
		}
		layout.GrandFinals.Matches = append(layout.GrandFinals.Matches, m)
	}

	return brackets.New(doc.Tournament.Name, registry, layout)
}

func importBracket(doc *Document, name models.BracketName, registry *brackets.Registry) (*models.Bracket, error) {
	bd, ok := doc.Brackets[string(name)]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q bracket", ErrMalformedDocument, name)
	}
	b := &models.Bracket{Name: name}
	for _, rd := range bd.Rounds {
		rnd := &models.Round{Index: rd.Round}
		for _, md := range rd.Matches {
			m, err := importMatch(md, registry)
			if err != nil {
				return nil, err
			}
			rnd.Matches = append(rnd.Matches, m)
		}
		b.Rounds = append(b.Rounds, rnd)
	}
	return b, nil
}

func importMatch(md MatchDoc, registry *brackets.Registry) (*models.Match, error) {
	if md.ID == "" {
		return nil, fmt.Errorf("%w: match without id", ErrMalformedDocument)
	}
	if md.Player1 == nil && md.Player1From == nil {
		return nil, fmt.Errorf("%w: match %s has neither player1 nor player1_from", ErrMalformedDocument, md.ID)
	}
	m := &models.Match{ID: md.ID, IsBye: md.Bye}

	var err error
	if md.Player1From != nil && *md.Player1From != "" {
		if m.Origin1, err = brackets.ParseOrigin(*md.Player1From); err != nil {
			return nil, fmt.Errorf("match %s: %w", md.ID, err)
		}
	} else if md.Player1 != nil && *md.Player1 != 0 {
		if m.Slot1, err = seededSlot(registry, *md.Player1, md.ID); err != nil {
			return nil, err
		}
	}

	switch {
	case md.Player2From != nil && *md.Player2From != "":
		if m.Origin2, err = brackets.ParseOrigin(*md.Player2From); err != nil {
			return nil, fmt.Errorf("match %s: %w", md.ID, err)
		}
	case md.Bye:
		m.Slot2 = models.ByeSlot()
	case md.Player2 != nil && *md.Player2 != 0:
		if m.Slot2, err = seededSlot(registry, *md.Player2, md.ID); err != nil {
			return nil, err
		}
	}

	if md.Winner != 0 {
		w, ok := registry.Lookup(md.Winner)
		if !ok {
			return nil, fmt.Errorf("%w: winner %d of match %s", brackets.ErrUnknownEntrant, md.Winner, md.ID)
		}
		m.Winner = w
	}
	return m, nil
}

func seededSlot(registry *brackets.Registry, id int, matchID string) (models.Slot, error) {
	e, ok := registry.Lookup(id)
	if !ok {
		return models.Slot{}, fmt.Errorf("%w: %d in match %s", brackets.ErrUnknownEntrant, id, matchID)
	}
	return models.EntrantSlot(e), nil
}

func entrantID(s models.Slot) int {
	if s.Entrant == nil {
		return 0
	}
	return s.Entrant.ID
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
