package brackets

import (
	"errors"
	"fmt"
)

// Fatal construction and load errors. A tournament is never created when one of these
// is returned.
var (
	ErrNotEnoughEntrants  = errors.New("not enough entrants to generate a double elimination bracket (minimum 2)")
	ErrDuplicateEntrant   = errors.New("duplicate entrant id")
	ErrUnknownEntrant     = errors.New("unknown entrant id")
	ErrDuplicateMatch     = errors.New("duplicate match id")
	ErrMalformedReference = errors.New("malformed origin reference")
	ErrUnknownMatch       = errors.New("origin reference to unknown match")
	ErrCycle              = errors.New("cycle in origin graph")
	ErrGrandFinalSlot     = errors.New("grand final slot 2 must come from the losers' bracket")
	ErrInconsistentWinner = errors.New("recorded winner does not occupy the match")
)

// ErrContractViolation is wrapped by every error returned for an illegal call against
// the progression engine. The graph is left untouched when it is returned.
var ErrContractViolation = errors.New("bracket contract violation")

var (
	ErrNotReady           = fmt.Errorf("%w: current match is not ready", ErrContractViolation)
	ErrNotInMatch         = fmt.Errorf("%w: entrant does not occupy the current match", ErrContractViolation)
	ErrTournamentComplete = fmt.Errorf("%w: tournament is complete", ErrContractViolation)
)
