package contract

import (
	"encoding/json"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/osmosis"
)

// Venue is the closed set of DEX routers the contract can swap through
type Venue int

const (
	VenueOsmosis Venue = iota + 1
	VenueAstroport
)

// Venues lists every supported venue
var Venues = []Venue{VenueOsmosis, VenueAstroport}

// ParseVenue maps a venue tag from a trigger message to a Venue
func ParseVenue(name string) (Venue, error) {
	switch name {
	case osmosis.VenueName:
		return VenueOsmosis, nil
	case astroport.VenueName:
		return VenueAstroport, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVenue, name)
	}
}

func (v Venue) String() string {
	switch v {
	case VenueOsmosis:
		return osmosis.VenueName
	case VenueAstroport:
		return astroport.VenueName
	default:
		return fmt.Sprintf("venue(%d)", int(v))
	}
}

func (v Venue) MarshalJSON() ([]byte, error) {
	if _, err := ParseVenue(v.String()); err != nil {
		return nil, err
	}
	return json.Marshal(v.String())
}

func (v *Venue) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseVenue(name)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ReplyStrategy selects how the swap completion is turned into a received amount
type ReplyStrategy string

const (
	// StrategyEventLog reads the received amount from the venue's events
	StrategyEventLog ReplyStrategy = "event_log"
	// StrategyBalanceDiff compares the contract balance before and after the swap
	StrategyBalanceDiff ReplyStrategy = "balance_diff"
)

// ParseReplyStrategy parses a strategy name, empty selects the venue default
func ParseReplyStrategy(name string) (ReplyStrategy, error) {
	switch ReplyStrategy(name) {
	case "":
		return "", nil
	case StrategyEventLog, StrategyBalanceDiff:
		return ReplyStrategy(name), nil
	default:
		return "", fmt.Errorf("unknown reply strategy %q", name)
	}
}

// DefaultStrategy is the strategy used when the router config does not pick one.
// The osmosis swaprouter does not reliably report its output in events.
func (v Venue) DefaultStrategy() ReplyStrategy {
	if v == VenueOsmosis {
		return StrategyBalanceDiff
	}
	return StrategyEventLog
}

// logFields describes where a venue writes its swap result
type logFields struct {
	namespace string
	received  string
	spread    string
}

func (v Venue) logFields() logFields {
	switch v {
	case VenueOsmosis:
		return logFields{namespace: osmosis.EventNamespace, received: osmosis.TokenOutAmountKey}
	case VenueAstroport:
		return logFields{
			namespace: astroport.EventNamespace,
			received:  astroport.ReturnAmountKey,
			spread:    astroport.SpreadAmountKey,
		}
	default:
		return logFields{}
	}
}
