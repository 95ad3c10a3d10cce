package domain

// Outcome classifies a resolution result. OutOfZone and NameError are
// typed negative outcomes, not errors: the wire layer maps them to
// standard negative response codes.
type Outcome uint8

const (
	// OutcomeAnswer means Records holds the authoritative answer.
	OutcomeAnswer Outcome = iota
	// OutcomeNameError means the zone is authoritative for the name but
	// no RRset exists there and no wildcard applies (NXDOMAIN).
	OutcomeNameError
	// OutcomeOutOfZone means the query name is not a descendant of the
	// zone origin; the caller must route the query elsewhere.
	OutcomeOutOfZone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswer:
		return "answer"
	case OutcomeNameError:
		return "nxdomain"
	case OutcomeOutOfZone:
		return "out-of-zone"
	default:
		return "unknown"
	}
}

// Answer is the result of resolving one query against one zone
// version: the outcome, the answer records in traversal order (alias
// chain first, then the terminal RRset), and a map recording every
// owner-name substitution performed for wildcard matches, keyed by the
// matched owner's folded form.
type Answer struct {
	Outcome  Outcome
	Records  []Record
	Rewrites map[string]Name
}

// NameErrorAnswer is the typed negative answer for a name that does not
// exist in an authoritative zone.
func NameErrorAnswer() Answer {
	return Answer{Outcome: OutcomeNameError}
}

// OutOfZoneAnswer is the typed miss for a name outside the zone.
func OutOfZoneAnswer() Answer {
	return Answer{Outcome: OutcomeOutOfZone}
}

// Positive reports whether the answer carries records.
func (a Answer) Positive() bool {
	return a.Outcome == OutcomeAnswer
}

// MinTTL returns the smallest TTL among the answer records; zero when
// the answer is empty. Callers use it to decide cacheability.
func (a Answer) MinTTL() uint32 {
	if len(a.Records) == 0 {
		return 0
	}
	min := a.Records[0].TTL
	for _, r := range a.Records[1:] {
		if r.TTL < min {
			min = r.TTL
		}
	}
	return min
}

// addRewrite records that records owned by from were rewritten to
// carry the owner name to.
func (a *Answer) addRewrite(from Name, to Name) {
	if a.Rewrites == nil {
		a.Rewrites = make(map[string]Name, 1)
	}
	a.Rewrites[from.Key()] = to
}

// AppendRRset appends all records of a set in canonical order.
func (a *Answer) AppendRRset(set RRset) {
	a.Records = append(a.Records, set.Records()...)
}

// AppendRewritten appends a set with its owner substituted (wildcard
// match) and records the rewrite.
func (a *Answer) AppendRewritten(set RRset, owner Name) {
	a.addRewrite(set.Owner, owner)
	a.AppendRRset(set.WithOwner(owner))
}
