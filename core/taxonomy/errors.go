package taxonomy

import "github.com/rotisserie/eris"

// Taxonomy load errors. All of them are configuration faults and fatal at load time.
var (
	ErrInvalidTaxonomy = eris.New("invalid taxonomy")
	ErrMissingFormula  = eris.New("subcomponent has no formula for a variant it claims")
	ErrInvalidFormula  = eris.New("invalid formula")
	ErrUnknownMember   = eris.New("main component references an unknown subcomponent")
	ErrDuplicateKey    = eris.New("duplicate key")
)
