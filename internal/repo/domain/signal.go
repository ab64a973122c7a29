package domain

// ChangeSignal classifies a burst of filesystem activity under a
// repository's .git directory. The set is closed: every observed event
// resolves to exactly one signal, and anything unclassifiable resolves
// to SignalFull.
type ChangeSignal int

const (
	SignalStatus ChangeSignal = iota // index / working files changed
	SignalHead                       // HEAD pointer moved
	SignalRefs                       // refs/heads, refs/remotes or packed-refs changed
	SignalStash                      // stash ref changed
	SignalConfig                     // repository config changed
	SignalFull                       // ambiguous or mixed activity; re-derive everything
)

// String returns the signal name used in logs.
func (s ChangeSignal) String() string {
	switch s {
	case SignalStatus:
		return "status"
	case SignalHead:
		return "head"
	case SignalRefs:
		return "refs"
	case SignalStash:
		return "stash"
	case SignalConfig:
		return "config"
	case SignalFull:
		return "full"
	default:
		return "unknown"
	}
}

// Merge combines two signals observed within the same debounce window.
// Equal signals collapse; differing signals escalate to SignalFull rather
// than guessing which category wins.
func (s ChangeSignal) Merge(other ChangeSignal) ChangeSignal {
	if s == other {
		return s
	}
	return SignalFull
}
