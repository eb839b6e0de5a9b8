package models

// BracketName classifies matches for rendering and scheduling.
type BracketName string

const (
	BracketWinner      BracketName = "winner"
	BracketLoser       BracketName = "loser"
	BracketGrandFinals BracketName = "grand_finals"
)

// Precedence orders brackets for scheduling: winners' before losers' before grand finals.
func (b BracketName) Precedence() int {
	switch b {
	case BracketWinner:
		return 0
	case BracketLoser:
		return 1
	case BracketGrandFinals:
		return 2
	default:
		return 3
	}
}

// Round is the ordered list of matches of one bracket at one depth.
type Round struct {
	Index   int      `json:"round"`
	Matches []*Match `json:"matches"`
}

type Bracket struct {
	Name   BracketName `json:"name"`
	Rounds []*Round    `json:"rounds"`
}

// LastMatch returns the final match of the bracket, nil when it has no matches.
func (b *Bracket) LastMatch() *Match {
	for i := len(b.Rounds) - 1; i >= 0; i-- {
		if n := len(b.Rounds[i].Matches); n > 0 {
			return b.Rounds[i].Matches[n-1]
		}
	}
	return nil
}

// GrandFinals holds GF1 and, after a bracket reset, GF2.
type GrandFinals struct {
	Matches      []*Match `json:"matches"`
	ResetEnabled bool     `json:"reset"`
}
