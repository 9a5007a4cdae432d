package contract

import "errors"

// Every error returned by the contract wraps one of these so hosts and callers can match
// them with errors.Is.
var (
	// ErrInvalidAsset is a missing, zero, or multi-asset deposit
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrDuplicateTokens is a swap of an asset into itself
	ErrDuplicateTokens = errors.New("duplicate tokens")
	// ErrUnauthorized is a swap already pending, a relay from an unknown sender, or a
	// config change from a non-owner
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedVenue is an unknown venue tag or a venue without a router
	ErrUnsupportedVenue = errors.New("unsupported dex")
	// ErrInvalidVenueParams is a slippage or route the venue cannot accept
	ErrInvalidVenueParams = errors.New("invalid venue parameters")
	// ErrMalformedVenueResponse is a swap that reported success but yielded no output
	ErrMalformedVenueResponse = errors.New("incomplete data in swap response")
	// ErrVenueFailure wraps the failure reported by the swap or forward sub-operation
	ErrVenueFailure = errors.New("sub-operation failed")
	// ErrInvalidReplyID is a completion the contract did not expect
	ErrInvalidReplyID = errors.New("invalid reply id")
)
