package reward

import "errors"

var (
	ErrMissingLeafIdentity  = errors.New("leaf requires campaign id, recipient and reason")
	ErrInvalidLeafAmount    = errors.New("leaf amount must be an integer in [0, 2^256-1]")
	ErrAmountOverflow       = errors.New("aggregated amount does not fit in uint256")
	ErrInvalidAddress       = errors.New("invalid hex address")
	ErrLeafIdentityMismatch = errors.New("leaves do not share the same (campaign, recipient, reason)")
	ErrUnknownLeaf          = errors.New("no positive aggregate for (recipient, token)")
	ErrDuplicateLeaf        = errors.New("duplicate (campaign, recipient, reason) in tree")
	ErrMalformedSnapshot    = errors.New("malformed reward snapshot")
)
