package contract

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
)

// interpretEventLog extracts the swap result from the venue's events. Every event in the
// venue namespace is scanned and the last occurrence of each field wins.
func interpretEventLog(events []Event, fields logFields) (SwapOutcome, error) {
	var received, spread string
	for _, ev := range events {
		if ev.Type != fields.namespace && !strings.HasPrefix(ev.Type, fields.namespace+"-") {
			continue
		}
		for _, attr := range ev.Attributes {
			switch {
			case attr.Key == fields.received:
				received = attr.Value
			case fields.spread != "" && attr.Key == fields.spread:
				spread = attr.Value
			}
		}
	}

	if received == "" {
		return SwapOutcome{}, fmt.Errorf("%w: %s not found in %s events", ErrMalformedVenueResponse, fields.received, fields.namespace)
	}
	amount, ok := math.NewIntFromString(received)
	if !ok {
		return SwapOutcome{}, fmt.Errorf("%w: %s=%q is not an amount", ErrMalformedVenueResponse, fields.received, received)
	}
	if !amount.IsPositive() {
		return SwapOutcome{}, fmt.Errorf("%w: %s=%s", ErrMalformedVenueResponse, fields.received, amount)
	}

	outcome := SwapOutcome{Received: amount}
	if spread != "" {
		spreadAmount, ok := math.NewIntFromString(spread)
		if !ok || spreadAmount.IsNegative() {
			return SwapOutcome{}, fmt.Errorf("%w: %s=%q is not an amount", ErrMalformedVenueResponse, fields.spread, spread)
		}
		outcome.Spread = &spreadAmount
	}
	return outcome, nil
}

// interpretBalanceDiff measures the swap result as the growth of the contract balance since
// the snapshot. It relies on no other operation touching the balance in between, which holds
// while only one swap can be pending.
func interpretBalanceDiff(current math.Int, previous *math.Int) (SwapOutcome, error) {
	if previous == nil {
		return SwapOutcome{}, fmt.Errorf("%w: no pre-swap balance recorded", ErrMalformedVenueResponse)
	}
	delta := current.Sub(*previous)
	if !delta.IsPositive() {
		return SwapOutcome{}, fmt.Errorf("%w: balance changed by %s", ErrMalformedVenueResponse, delta)
	}
	return SwapOutcome{Received: delta}, nil
}
