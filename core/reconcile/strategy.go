package reconcile

import "fmt"

// Strategy governs which records are considered and re-written during a pass.
type Strategy string

const (
	// StrategyFull processes every source record, ignoring any baseline.
	StrategyFull Strategy = "full"
	// StrategyIncremental skips records whose baseline fingerprint is
	// unchanged before any destination lookup.
	StrategyIncremental Strategy = "incremental"
	// StrategyDelta behaves like incremental; the caller is expected to have
	// pre-filtered the batch to changed records via Classify.
	StrategyDelta Strategy = "delta"
	// StrategyMirror skips any record with no differing fields and reports
	// destination-only identities in Result.DestinationOnly.
	StrategyMirror Strategy = "mirror"
)

// IsValid reports whether the strategy is recognized.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyFull, StrategyIncremental, StrategyDelta, StrategyMirror:
		return true
	default:
		return false
	}
}

func (s Strategy) String() string {
	return string(s)
}

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown sync strategy %q", s)
	}
	return st, nil
}

// Resolution is the policy for picking or merging a value when source and
// destination disagree on a field.
type Resolution string

const (
	// ResolutionSourceWins takes the source record unchanged.
	ResolutionSourceWins Resolution = "source_wins"
	// ResolutionDestinationWins takes the destination record unchanged.
	ResolutionDestinationWins Resolution = "destination_wins"
	// ResolutionNewestWins takes whichever side has the strictly later
	// timestamp; missing or equal timestamps fall back to the source.
	ResolutionNewestWins Resolution = "newest_wins"
	// ResolutionMerge keeps destination values, backfills null destination
	// fields from the source, and always takes the later timestamp.
	ResolutionMerge Resolution = "merge"
	// ResolutionManual defers the decision: the conflict is returned to the
	// caller as a ConflictRecord and nothing is written.
	ResolutionManual Resolution = "manual"
)

// IsValid reports whether the resolution is recognized.
func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionSourceWins, ResolutionDestinationWins,
		ResolutionNewestWins, ResolutionMerge, ResolutionManual:
		return true
	default:
		return false
	}
}

func (r Resolution) String() string {
	return string(r)
}

// ParseResolution converts a configuration string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	res := Resolution(s)
	if !res.IsValid() {
		return "", fmt.Errorf("unknown conflict resolution %q", s)
	}
	return res, nil
}

// Direction documents which way a configured sync flows. It is metadata
// only: actual directionality is expressed by which side is passed as
// source vs destination to the engine.
type Direction string

const (
	DirectionInbound       Direction = "inbound"
	DirectionOutbound      Direction = "outbound"
	DirectionBidirectional Direction = "bidirectional"
)

// IsValid reports whether the direction is recognized.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionInbound, DirectionOutbound, DirectionBidirectional:
		return true
	default:
		return false
	}
}

func (d Direction) String() string {
	return string(d)
}
