package domain

import (
	"fmt"
	"sort"
)

// Record is one resource record: an owner name, a time-to-live in
// seconds (zero is valid and means "do not cache"), and type-specific
// data.
type Record struct {
	Owner Name
	TTL   uint32
	Data  RData
}

// NewRecord validates and builds a Record.
func NewRecord(owner Name, ttl uint32, data RData) (Record, error) {
	if data == nil {
		return Record{}, fmt.Errorf("%w: record data is nil", ErrMalformedRecord)
	}
	return Record{Owner: owner, TTL: ttl, Data: data}, nil
}

// Type returns the record's type code.
func (r Record) Type() RRType {
	return r.Data.Type()
}

// RRsetKey identifies an RRset within a zone by folded owner name and
// type.
type RRsetKey struct {
	Owner string
	Type  RRType
}

func (k RRsetKey) String() string {
	return fmt.Sprintf("%s/%s", k.Owner, k.Type)
}

// RRset is the set of records sharing an owner name and type. All
// members share the set's TTL. Data values are held in canonical order
// with duplicates removed, so two RRsets with the same semantic content
// are structurally identical regardless of construction order.
type RRset struct {
	Owner Name
	Type  RRType
	TTL   uint32
	Data  []RData
}

// NewRRset validates and builds an RRset. The set must be non-empty and
// every data value must match the set's type. Data is sorted
// canonically and deduplicated.
func NewRRset(owner Name, rrtype RRType, ttl uint32, data ...RData) (RRset, error) {
	if len(data) == 0 {
		return RRset{}, fmt.Errorf("%w: RRset must contain at least one record", ErrMalformedRecord)
	}
	sorted := make([]RData, 0, len(data))
	for _, d := range data {
		if d == nil {
			return RRset{}, fmt.Errorf("%w: record data is nil", ErrMalformedRecord)
		}
		if d.Type() != rrtype {
			return RRset{}, fmt.Errorf("%w: %s data in %s RRset", ErrMalformedRecord, d.Type(), rrtype)
		}
		sorted = append(sorted, d)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareRData(sorted[i], sorted[j]) < 0
	})
	deduped := sorted[:1]
	for _, d := range sorted[1:] {
		if !EqualRData(deduped[len(deduped)-1], d) {
			deduped = append(deduped, d)
		}
	}
	return RRset{Owner: owner, Type: rrtype, TTL: ttl, Data: deduped}, nil
}

// RRsetFromRecords groups records that already share an owner and type
// into an RRset. Mismatched TTLs are normalized to the set minimum.
func RRsetFromRecords(records []Record) (RRset, error) {
	if len(records) == 0 {
		return RRset{}, fmt.Errorf("%w: RRset must contain at least one record", ErrMalformedRecord)
	}
	owner := records[0].Owner
	rrtype := records[0].Type()
	ttl := records[0].TTL
	data := make([]RData, 0, len(records))
	for _, r := range records {
		if !r.Owner.Equal(owner) {
			return RRset{}, fmt.Errorf("%w: mixed owner names %s and %s", ErrMalformedRecord, owner, r.Owner)
		}
		if r.Type() != rrtype {
			return RRset{}, fmt.Errorf("%w: mixed types %s and %s", ErrMalformedRecord, rrtype, r.Type())
		}
		if r.TTL < ttl {
			ttl = r.TTL
		}
		data = append(data, r.Data)
	}
	return NewRRset(owner, rrtype, ttl, data...)
}

// Key returns the RRset's identity within a zone.
func (s RRset) Key() RRsetKey {
	return RRsetKey{Owner: s.Owner.Key(), Type: s.Type}
}

// Len returns the number of records in the set.
func (s RRset) Len() int {
	return len(s.Data)
}

// Records materializes the set as individual records.
func (s RRset) Records() []Record {
	out := make([]Record, len(s.Data))
	for i, d := range s.Data {
		out[i] = Record{Owner: s.Owner, TTL: s.TTL, Data: d}
	}
	return out
}

// WithOwner returns a copy of the set rewritten to a different owner
// name; the resolver uses this to substitute the query name for a
// wildcard owner.
func (s RRset) WithOwner(owner Name) RRset {
	return RRset{Owner: owner, Type: s.Type, TTL: s.TTL, Data: s.Data}
}

// Equal reports deep semantic equality of two RRsets.
func (s RRset) Equal(other RRset) bool {
	if !s.Owner.Equal(other.Owner) || s.Type != other.Type || s.TTL != other.TTL || len(s.Data) != len(other.Data) {
		return false
	}
	for i := range s.Data {
		if !EqualRData(s.Data[i], other.Data[i]) {
			return false
		}
	}
	return true
}
