package domain

import "fmt"

// Change describes one mutation to a zone: either an RRset to add or
// replace, or the key of an RRset to remove. Exactly one field is set.
// SOA sets cannot be changed directly; the engine owns serial
// progression and rewrites the apex SOA on every applied change.
type Change struct {
	Upsert *RRset
	Remove *RRsetKey
}

// Validate checks that the change is well-formed in isolation.
func (c Change) Validate() error {
	switch {
	case c.Upsert == nil && c.Remove == nil:
		return fmt.Errorf("%w: empty change", ErrMalformedRecord)
	case c.Upsert != nil && c.Remove != nil:
		return fmt.Errorf("%w: change cannot both upsert and remove", ErrMalformedRecord)
	case c.Upsert != nil && c.Upsert.Type == RRTypeSOA:
		return fmt.Errorf("%w: SOA cannot be changed directly", ErrMalformedRecord)
	case c.Remove != nil && c.Remove.Type == RRTypeSOA:
		return fmt.Errorf("%w: SOA cannot be removed", ErrMalformedRecord)
	default:
		return nil
	}
}

// Apply produces a new Zone with the change applied, the SOA serial
// incremented, and the generation counter advanced. The receiver is
// never mutated; on error it remains the only valid version.
func (z *Zone) Apply(change Change) (*Zone, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}
	if change.Remove != nil {
		key := *change.Remove
		byType, ok := z.sets[key.Owner]
		if !ok {
			return nil, fmt.Errorf("%w: no RRset %s", ErrMalformedRecord, key)
		}
		if _, ok := byType[key.Type]; !ok {
			return nil, fmt.Errorf("%w: no RRset %s", ErrMalformedRecord, key)
		}
	}

	soa := z.soa
	soa.Serial++
	apexSOA, err := NewRRset(z.origin, RRTypeSOA, z.soaTTL(), soa)
	if err != nil {
		return nil, err
	}

	b := NewZoneBuilder(z.origin).SetGeneration(z.generation + 1)
	if err := b.Add(apexSOA); err != nil {
		return nil, err
	}
	for _, owner := range z.owners {
		for _, set := range z.SetsAt(owner) {
			key := set.Key()
			if key.Type == RRTypeSOA {
				continue // replaced above
			}
			if change.Remove != nil && key == *change.Remove {
				continue
			}
			if change.Upsert != nil && key == change.Upsert.Key() {
				continue // replaced below
			}
			if err := b.Add(set); err != nil {
				return nil, err
			}
		}
	}
	if change.Upsert != nil {
		if err := b.Add(*change.Upsert); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// soaTTL returns the TTL of the apex SOA RRset.
func (z *Zone) soaTTL() uint32 {
	if set, ok := z.Exact(z.origin, RRTypeSOA); ok {
		return set.TTL
	}
	return z.soa.Minimum
}
