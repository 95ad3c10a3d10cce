package resolver

import (
	"github.com/haukened/az-dns/internal/dns/domain"
)

// chase is the state of one resolution: an explicit bounded loop over
// CNAME hops with a visited set, so cycle and depth limits are
// structural rather than stack-depth accidents.
type chase struct {
	zone     *domain.Zone
	view     ZoneView
	qtype    domain.RRType
	current  domain.Name
	visited  map[string]struct{}
	hops     int
	maxChain int
	ans      domain.Answer
}

func newChase(zone *domain.Zone, view ZoneView, qname domain.Name, qtype domain.RRType, maxChain int) *chase {
	return &chase{
		zone:     zone,
		view:     view,
		qtype:    qtype,
		current:  qname,
		visited:  make(map[string]struct{}),
		maxChain: maxChain,
	}
}

// match is one lookup outcome at an owner name: either the terminal
// RRset for the query type, or a CNAME to follow. wildcard marks that
// the set was synthesized from a wildcard owner and must be rewritten
// to the queried name.
type match struct {
	set      domain.RRset
	alias    bool
	wildcard bool
}

// run drives the resolution to completion against the single snapshot.
func (c *chase) run() (domain.Answer, error) {
	for {
		m, ok := c.lookupAt(c.current)
		if !ok {
			if c.hops == 0 {
				return domain.NameErrorAnswer(), nil
			}
			// The chain ended without terminal data; the collected
			// CNAMEs are still the answer.
			return c.ans, nil
		}
		if !m.alias {
			c.appendMatch(m)
			return c.ans, nil
		}

		c.hops++
		if c.hops > c.maxChain {
			return domain.Answer{}, domain.ErrChainTooLong
		}
		if _, seen := c.visited[c.current.Key()]; seen {
			return domain.Answer{}, domain.ErrResolutionCycle
		}
		c.visited[c.current.Key()] = struct{}{}
		c.appendMatch(m)

		target, ok := aliasTarget(m.set)
		if !ok {
			return c.ans, nil
		}
		if !c.zone.Contains(target) {
			// Flattening is scoped to the zone's own data: an external
			// target ends the chain, reported as the final CNAME.
			return c.ans, nil
		}
		c.current = target
	}
}

// lookupAt applies one round of the matching sequence at name: exact
// match for the query type, exact CNAME, then wildcard candidates in
// descending specificity. Exact matches at the literal name always win
// over wildcards; wildcards apply only when no RRset exists at the
// literal name.
func (c *chase) lookupAt(name domain.Name) (match, bool) {
	hasOwner := false
	if c.view.MightContain(name) {
		if set, ok := c.zone.Exact(name, c.qtype); ok {
			return match{set: set}, true
		}
		if c.qtype != domain.RRTypeCNAME {
			if set, ok := c.zone.Exact(name, domain.RRTypeCNAME); ok {
				return match{set: set, alias: true}, true
			}
		}
		hasOwner = c.zone.HasOwner(name)
	}
	if hasOwner {
		return match{}, false
	}
	for _, cand := range c.zone.WildcardCandidates(name) {
		if set, ok := cand.Sets[c.qtype]; ok {
			return match{set: set, wildcard: true}, true
		}
		if c.qtype != domain.RRTypeCNAME {
			if set, ok := cand.Sets[domain.RRTypeCNAME]; ok {
				return match{set: set, alias: true, wildcard: true}, true
			}
		}
	}
	return match{}, false
}

// appendMatch adds a matched set to the answer, rewriting the owner to
// the current lookup name for wildcard matches.
func (c *chase) appendMatch(m match) {
	if m.wildcard {
		c.ans.AppendRewritten(m.set, c.current)
	} else {
		c.ans.AppendRRset(m.set)
	}
}

// aliasTarget extracts the target of a CNAME RRset. Sets are held in
// canonical order, so the extraction is deterministic even for the
// degenerate multi-record case.
func aliasTarget(set domain.RRset) (domain.Name, bool) {
	if len(set.Data) == 0 {
		return domain.Name{}, false
	}
	cname, ok := set.Data[0].(domain.CNAMEData)
	if !ok {
		return domain.Name{}, false
	}
	return cname.Target, true
}
