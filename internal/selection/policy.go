package selection

import (
	"fmt"
	"strings"
)

// Policy decides which candidate list is executed.
type Policy int

const (
	// PreferLearned runs the predicted tool. It is the default.
	PreferLearned Policy = iota
	// PreferKnown runs the historically best tools and never falls back
	// to the prediction.
	PreferKnown
	// PreferKnownMix runs the historically best tools when there are any
	// and the predicted tool otherwise.
	PreferKnownMix
)

// Selection-mode signals recognised by ParsePolicy.
const (
	signalPrefix = "mcc4mcc-"
	SignalCheat  = signalPrefix + "cheat"
	SignalMix    = signalPrefix + "mix"
)

func (p Policy) String() string {
	switch p {
	case PreferLearned:
		return "learned"
	case PreferKnown:
		return "known"
	case PreferKnownMix:
		return "mix"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a selection-mode signal to a policy. Anything other than
// the cheat and mix signals selects PreferLearned.
func ParsePolicy(signal string) Policy {
	switch signal {
	case SignalCheat:
		return PreferKnown
	case SignalMix:
		return PreferKnownMix
	default:
		return PreferLearned
	}
}

// LookupPolicy returns the policy named by String.
func LookupPolicy(name string) (Policy, error) {
	for _, p := range []Policy{PreferLearned, PreferKnown, PreferKnownMix} {
		if strings.EqualFold(name, p.String()) {
			return p, nil
		}
	}
	return PreferLearned, fmt.Errorf("unknown policy %q: must be learned, known or mix", name)
}

// PrefixFromSignal extracts the artifact prefix named by a signal of the
// form mcc4mcc-<prefix>. The cheat and mix signals name no prefix.
func PrefixFromSignal(signal string) (string, bool) {
	if signal == SignalCheat || signal == SignalMix {
		return "", false
	}
	prefix, ok := strings.CutPrefix(signal, signalPrefix)
	if !ok || prefix == "" {
		return "", false
	}
	return prefix, true
}

// choose returns the candidate list policy executes, or false when no
// applicable list has candidates.
func (p Policy) choose(known, learned []Candidate) ([]Candidate, bool) {
	switch {
	case p == PreferKnown && len(known) > 0:
		return known, true
	case p == PreferKnownMix && len(known) > 0:
		return known, true
	case p != PreferKnown && len(learned) > 0:
		return learned, true
	default:
		return nil, false
	}
}
