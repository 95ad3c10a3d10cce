package domain

import (
	"fmt"
	"sort"
)

// Zone is one version of an authoritative zone: an origin, the SOA
// serial, a generation counter, and an index of RRsets by owner name.
// A Zone is immutable after Build; updates produce a new Zone value.
type Zone struct {
	origin     Name
	serial     uint32
	generation uint64
	soa        SOAData

	owners      []Name                      // canonical order
	sets        map[string]map[RRType]RRset // owner key → type → set
	wildcards   map[string]map[RRType]RRset // wildcard parent key → type → set
	recordCount int
}

// Origin returns the zone's apex name.
func (z *Zone) Origin() Name { return z.origin }

// Serial returns the SOA serial of this version.
func (z *Zone) Serial() uint32 { return z.serial }

// Generation returns the in-process version counter; unlike the serial
// it is not part of the encoded form.
func (z *Zone) Generation() uint64 { return z.generation }

// SOA returns the apex start-of-authority data.
func (z *Zone) SOA() SOAData { return z.soa }

// Contains reports whether name is the origin or one of its
// descendants; names outside are routed elsewhere by the caller.
func (z *Zone) Contains(name Name) bool {
	return name.Within(z.origin)
}

// IsApex reports whether name is the zone origin.
func (z *Zone) IsApex(name Name) bool {
	return name.Equal(z.origin)
}

// Exact returns the RRset stored at exactly (name, type).
func (z *Zone) Exact(name Name, rrtype RRType) (RRset, bool) {
	byType, ok := z.sets[name.Key()]
	if !ok {
		return RRset{}, false
	}
	set, ok := byType[rrtype]
	return set, ok
}

// HasOwner reports whether any RRset exists at the literal name.
// Wildcard matching only applies when this is false.
func (z *Zone) HasOwner(name Name) bool {
	_, ok := z.sets[name.Key()]
	return ok
}

// WildcardMatch is one candidate produced by WildcardCandidates: the
// suffix whose wildcard owner matched, and that owner's RRsets by type.
type WildcardMatch struct {
	Suffix Name
	Sets   map[RRType]RRset
}

// WildcardCandidates yields the wildcard RRsets registered at each
// proper suffix of name, longest suffix first, down to the origin.
// Suffixes are totally ordered by length, so descending specificity
// needs no further tie-break.
func (z *Zone) WildcardCandidates(name Name) []WildcardMatch {
	var out []WildcardMatch
	for suffix := name.Parent(); suffix.Within(z.origin); suffix = suffix.Parent() {
		if byType, ok := z.wildcards[suffix.Key()]; ok {
			out = append(out, WildcardMatch{Suffix: suffix, Sets: byType})
		}
		if suffix.Equal(z.origin) {
			break
		}
	}
	return out
}

// Owners returns every owner name in canonical order. The slice is
// shared; callers must not modify it.
func (z *Zone) Owners() []Name { return z.owners }

// SetsAt returns the RRsets at an owner name ordered by type code.
func (z *Zone) SetsAt(name Name) []RRset {
	byType, ok := z.sets[name.Key()]
	if !ok {
		return nil
	}
	out := make([]RRset, 0, len(byType))
	for _, set := range byType {
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// RecordCount returns the total number of records across all RRsets.
func (z *Zone) RecordCount() int { return z.recordCount }

// Equal reports deep semantic equality with another zone version,
// ignoring the generation counter. It backs the codec round-trip tests.
func (z *Zone) Equal(other *Zone) bool {
	if !z.origin.Equal(other.origin) || z.serial != other.serial || z.recordCount != other.recordCount {
		return false
	}
	if len(z.owners) != len(other.owners) {
		return false
	}
	for i := range z.owners {
		if !z.owners[i].Equal(other.owners[i]) {
			return false
		}
	}
	for key, byType := range z.sets {
		otherByType, ok := other.sets[key]
		if !ok || len(byType) != len(otherByType) {
			return false
		}
		for t, set := range byType {
			otherSet, ok := otherByType[t]
			if !ok || !set.Equal(otherSet) {
				return false
			}
		}
	}
	return true
}

// ZoneBuilder assembles a Zone one RRset at a time, maintaining the
// index incrementally so a decoder can build the zone and its index in
// a single pass over the encoded form.
type ZoneBuilder struct {
	origin     Name
	generation uint64
	soa        *SOAData

	owners      []Name
	sets        map[string]map[RRType]RRset
	wildcards   map[string]map[RRType]RRset
	recordCount int
}

// NewZoneBuilder starts a zone rooted at origin.
func NewZoneBuilder(origin Name) *ZoneBuilder {
	return &ZoneBuilder{
		origin:    origin,
		sets:      make(map[string]map[RRType]RRset),
		wildcards: make(map[string]map[RRType]RRset),
	}
}

// SetGeneration sets the in-process version counter of the built zone.
func (b *ZoneBuilder) SetGeneration(g uint64) *ZoneBuilder {
	b.generation = g
	return b
}

// Add inserts one RRset, indexing it by owner and, for wildcard owners,
// under the wildcard parent suffix. SOA sets must be a single record at
// the origin and may appear only once.
func (b *ZoneBuilder) Add(set RRset) error {
	if !set.Owner.Within(b.origin) {
		return fmt.Errorf("%w: %s not under %s", ErrOwnerOutOfZone, set.Owner, b.origin)
	}
	if set.Type == RRTypeSOA {
		if !set.Owner.Equal(b.origin) {
			return fmt.Errorf("%w: SOA at %s, origin is %s", ErrMalformedRecord, set.Owner, b.origin)
		}
		if set.Len() != 1 || b.soa != nil {
			return ErrDuplicateSOA
		}
		soa, ok := set.Data[0].(SOAData)
		if !ok {
			return fmt.Errorf("%w: SOA RRset with non-SOA data", ErrMalformedRecord)
		}
		b.soa = &soa
	}
	key := set.Owner.Key()
	byType, ok := b.sets[key]
	if !ok {
		byType = make(map[RRType]RRset)
		b.sets[key] = byType
		b.owners = append(b.owners, set.Owner)
	}
	if _, dup := byType[set.Type]; dup {
		return fmt.Errorf("%w: duplicate RRset %s", ErrMalformedRecord, set.Key())
	}
	byType[set.Type] = set
	b.recordCount += set.Len()

	if set.Owner.IsWildcard() {
		parentKey := set.Owner.WildcardParent().Key()
		byType, ok := b.wildcards[parentKey]
		if !ok {
			byType = make(map[RRType]RRset)
			b.wildcards[parentKey] = byType
		}
		byType[set.Type] = set
	}
	return nil
}

// Build finalizes the zone. The serial is taken from the SOA record.
func (b *ZoneBuilder) Build() (*Zone, error) {
	if b.soa == nil {
		return nil, ErrMissingSOA
	}
	owners := make([]Name, len(b.owners))
	copy(owners, b.owners)
	sort.Slice(owners, func(i, j int) bool { return owners[i].Compare(owners[j]) < 0 })
	return &Zone{
		origin:      b.origin,
		serial:      b.soa.Serial,
		generation:  b.generation,
		soa:         *b.soa,
		owners:      owners,
		sets:        b.sets,
		wildcards:   b.wildcards,
		recordCount: b.recordCount,
	}, nil
}
