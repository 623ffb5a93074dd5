package protocol

import "errors"

var (
	ErrInvalidDecision = errors.New("invalid decision")
	ErrDecisionCount   = errors.New("decision count does not match pending actions")
)
