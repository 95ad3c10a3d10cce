// Package zonecodec implements the binary zone format, version 0.
//
// The encoding is a flat, self-describing sequence of fixed-width and
// length-prefixed fields; there is no text grammar and no backtracking.
// All integers are big-endian.
//
//	magic       6 bytes  "HECKO\x1a"
//	version     uint16
//	serial      uint32   SOA serial, duplicated from the apex SOA
//	records     uint32   total record count across all RRsets
//	labels      uint32 count, then per label: uint8 length + bytes
//	origin      name
//	owners      uint32 count, then per owner (canonical order):
//	              name
//	              uint16 RRset count, then per RRset (by type code):
//	                uint16 type, uint32 ttl, uint16 record count,
//	                per record: uint16 payload length + payload
//
// A name is a uint8 label count followed by one uint32 index into the
// label table per label, least-significant label first. Names embedded
// in record payloads use the same table, so labels shared between
// owners and targets are stored once.
//
// Encode sorts owners, types and record payloads canonically, so two
// zones with identical semantic content produce byte-identical output.
package zonecodec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/haukened/az-dns/internal/dns/domain"
)

// FormatVersion is the current encoding version.
const FormatVersion uint16 = 0

// magic marks a zone blob; "HECKO" plus a DOS EOF byte.
var magic = [6]byte{0x48, 0x45, 0x43, 0x4b, 0x4f, 0x1a}

const (
	maxNameLabels  = 127
	maxPayloadSize = 65535
)

// labelTable interns labels in first-use order. Interning is
// case-sensitive so owner-name case survives a round trip.
type labelTable struct {
	index  map[string]uint32
	labels []string
}

func newLabelTable() *labelTable {
	return &labelTable{index: make(map[string]uint32)}
}

func (t *labelTable) intern(label string) uint32 {
	if i, ok := t.index[label]; ok {
		return i
	}
	i := uint32(len(t.labels))
	t.index[label] = i
	t.labels = append(t.labels, label)
	return i
}

func (t *labelTable) internName(n domain.Name) {
	for _, l := range n.Labels() {
		t.intern(l)
	}
}

// Encode serializes a zone to format v0. Encoding is deterministic:
// repeated calls on semantically equal zones yield identical bytes.
func Encode(z *domain.Zone) ([]byte, error) {
	table := newLabelTable()
	collectLabels(z, table)

	var buf bytes.Buffer
	buf.Write(magic[:])
	putU16(&buf, FormatVersion)
	putU32(&buf, z.Serial())
	if uint64(z.RecordCount()) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: record count overflows header", domain.ErrMalformedRecord)
	}
	putU32(&buf, uint32(z.RecordCount()))

	putU32(&buf, uint32(len(table.labels)))
	for _, l := range table.labels {
		buf.WriteByte(byte(len(l)))
		buf.WriteString(l)
	}

	if err := putName(&buf, table, z.Origin()); err != nil {
		return nil, err
	}

	owners := z.Owners()
	putU32(&buf, uint32(len(owners)))
	for _, owner := range owners {
		if err := putName(&buf, table, owner); err != nil {
			return nil, err
		}
		sets := z.SetsAt(owner)
		if len(sets) > int(^uint16(0)) {
			return nil, fmt.Errorf("%w: too many RRsets at %s", domain.ErrMalformedRecord, owner)
		}
		putU16(&buf, uint16(len(sets)))
		for _, set := range sets {
			if len(set.Data) > int(^uint16(0)) {
				return nil, fmt.Errorf("%w: too many records in %s", domain.ErrMalformedRecord, set.Key())
			}
			putU16(&buf, uint16(set.Type))
			putU32(&buf, set.TTL)
			putU16(&buf, uint16(len(set.Data)))
			for _, data := range set.Data {
				payload, err := encodeRData(table, data)
				if err != nil {
					return nil, err
				}
				if len(payload) > maxPayloadSize {
					return nil, fmt.Errorf("%w: %s payload exceeds %d octets", domain.ErrMalformedRecord, set.Type, maxPayloadSize)
				}
				putU16(&buf, uint16(len(payload)))
				buf.Write(payload)
			}
		}
	}
	return buf.Bytes(), nil
}

// collectLabels walks the zone in encoding order so the label table is
// identical between the two passes.
func collectLabels(z *domain.Zone, table *labelTable) {
	table.internName(z.Origin())
	for _, owner := range z.Owners() {
		table.internName(owner)
		for _, set := range z.SetsAt(owner) {
			for _, data := range set.Data {
				for _, n := range rdataNames(data) {
					table.internName(n)
				}
			}
		}
	}
}

// rdataNames returns the names embedded in a record payload.
func rdataNames(data domain.RData) []domain.Name {
	switch d := data.(type) {
	case domain.CNAMEData:
		return []domain.Name{d.Target}
	case domain.NSData:
		return []domain.Name{d.Target}
	case domain.PTRData:
		return []domain.Name{d.Target}
	case domain.MXData:
		return []domain.Name{d.Exchange}
	case domain.SRVData:
		return []domain.Name{d.Target}
	case domain.SOAData:
		return []domain.Name{d.MName, d.RName}
	default:
		return nil
	}
}

// putName writes a name as a label count plus table indexes.
func putName(buf *bytes.Buffer, table *labelTable, n domain.Name) error {
	labels := n.Labels()
	if len(labels) > maxNameLabels {
		return fmt.Errorf("%w: name %s has too many labels", domain.ErrMalformedName, n)
	}
	buf.WriteByte(byte(len(labels)))
	for _, l := range labels {
		putU32(buf, table.intern(l))
	}
	return nil
}

// encodeRData serializes one payload. Names inside payloads use the
// shared label table.
func encodeRData(table *labelTable, data domain.RData) ([]byte, error) {
	var buf bytes.Buffer
	switch d := data.(type) {
	case domain.AData:
		addr := d.Addr.As4()
		buf.Write(addr[:])
	case domain.AAAAData:
		addr := d.Addr.As16()
		buf.Write(addr[:])
	case domain.CNAMEData:
		if err := putName(&buf, table, d.Target); err != nil {
			return nil, err
		}
	case domain.NSData:
		if err := putName(&buf, table, d.Target); err != nil {
			return nil, err
		}
	case domain.PTRData:
		if err := putName(&buf, table, d.Target); err != nil {
			return nil, err
		}
	case domain.MXData:
		putU16(&buf, d.Preference)
		if err := putName(&buf, table, d.Exchange); err != nil {
			return nil, err
		}
	case domain.SRVData:
		putU16(&buf, d.Priority)
		putU16(&buf, d.Weight)
		putU16(&buf, d.Port)
		if err := putName(&buf, table, d.Target); err != nil {
			return nil, err
		}
	case domain.TXTData:
		buf.WriteString(d.Text)
	case domain.SOAData:
		if err := putName(&buf, table, d.MName); err != nil {
			return nil, err
		}
		if err := putName(&buf, table, d.RName); err != nil {
			return nil, err
		}
		putU32(&buf, d.Serial)
		putU32(&buf, d.Refresh)
		putU32(&buf, d.Retry)
		putU32(&buf, d.Expire)
		putU32(&buf, d.Minimum)
	case domain.RawData:
		buf.Write(d.Bytes)
	default:
		return nil, fmt.Errorf("%w: unencodable data type %T", domain.ErrMalformedRecord, data)
	}
	return buf.Bytes(), nil
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
