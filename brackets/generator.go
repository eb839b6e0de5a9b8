package brackets

import (
	"github.com/Dosada05/bracket-engine/models"
)

type GenerateBracketParams struct {
	Registry *Registry
}

// Layout is the round structure of a tournament before it is linked: the two brackets
// and the grand finals, with origin references still symbolic.
type Layout struct {
	Winners     *models.Bracket
	Losers      *models.Bracket
	GrandFinals *models.GrandFinals
}

type BracketGenerator interface {
	GenerateBracket(params GenerateBracketParams) (*Layout, error)

	GetName() string
}
