package domain

import "errors"

// Sentinel errors for zone construction, decoding, publishing and
// resolution. Build and decode failures are fatal to the zone being
// built; the caller keeps serving the previous version. Resolution
// failures are local to one query.
var (
	// ErrMalformedName indicates a domain name that violates label or
	// total-length limits, or contains characters IDNA cannot map.
	ErrMalformedName = errors.New("malformed domain name")

	// ErrMalformedRecord indicates type-specific record data that failed
	// construction-time validation. Malformed data never reaches the codec.
	ErrMalformedRecord = errors.New("malformed record data")

	// ErrCorruptZone indicates a byte sequence that is not a well-formed
	// zone encoding: truncation, bad magic, unknown version, or a length
	// prefix exceeding the remaining buffer.
	ErrCorruptZone = errors.New("corrupt zone encoding")

	// ErrMissingSOA indicates a zone without an SOA RRset at its origin.
	ErrMissingSOA = errors.New("zone has no SOA record at origin")

	// ErrDuplicateSOA indicates more than one SOA RRset, or an SOA away
	// from the origin.
	ErrDuplicateSOA = errors.New("zone has more than one SOA record")

	// ErrOwnerOutOfZone indicates an owner name that is not the origin or
	// one of its descendants.
	ErrOwnerOutOfZone = errors.New("owner name outside zone origin")

	// ErrStaleUpdate indicates a publish whose SOA serial is not greater
	// than the currently served version's serial.
	ErrStaleUpdate = errors.New("zone serial not greater than current")

	// ErrResolutionCycle indicates a CNAME chain that revisited an owner
	// name already seen during the same resolution.
	ErrResolutionCycle = errors.New("cname chain forms a cycle")

	// ErrChainTooLong indicates a CNAME chain that exceeded the hop cap.
	ErrChainTooLong = errors.New("cname chain exceeds maximum length")
)
