package zonecodec

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/haukened/az-dns/internal/dns/domain"
)

// Decode parses a format v0 blob into a Zone, building the zone index
// (including wildcard registration) in the same pass. Any malformed
// input yields an error; Decode never returns a partial zone.
func Decode(blob []byte) (*domain.Zone, error) {
	d := &decoder{buf: blob}

	var m [6]byte
	if err := d.read(m[:]); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrCorruptZone)
	}
	version, err := d.u16()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unknown format version %d", domain.ErrCorruptZone, version)
	}
	serial, err := d.u32()
	if err != nil {
		return nil, err
	}
	recordCount, err := d.u32()
	if err != nil {
		return nil, err
	}

	labels, err := d.labelTable()
	if err != nil {
		return nil, err
	}
	origin, err := d.name(labels)
	if err != nil {
		return nil, err
	}

	ownerCount, err := d.u32()
	if err != nil {
		return nil, err
	}
	// Each owner needs at least a label count and an RRset count.
	if int64(ownerCount)*3 > int64(d.remaining()) {
		return nil, fmt.Errorf("%w: owner count %d exceeds buffer", domain.ErrCorruptZone, ownerCount)
	}

	b := domain.NewZoneBuilder(origin)
	for i := uint32(0); i < ownerCount; i++ {
		owner, err := d.name(labels)
		if err != nil {
			return nil, err
		}
		setCount, err := d.u16()
		if err != nil {
			return nil, err
		}
		if setCount == 0 {
			return nil, fmt.Errorf("%w: owner %s has no RRsets", domain.ErrCorruptZone, owner)
		}
		for j := uint16(0); j < setCount; j++ {
			set, err := d.rrset(owner, labels)
			if err != nil {
				return nil, err
			}
			if err := b.Add(set); err != nil {
				return nil, err
			}
		}
	}
	if d.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", domain.ErrCorruptZone, d.remaining())
	}

	zone, err := b.Build()
	if err != nil {
		return nil, err
	}
	if zone.Serial() != serial {
		return nil, fmt.Errorf("%w: header serial %d does not match SOA serial %d", domain.ErrCorruptZone, serial, zone.Serial())
	}
	if zone.RecordCount() != int(recordCount) {
		return nil, fmt.Errorf("%w: header record count %d does not match body %d", domain.ErrCorruptZone, recordCount, zone.RecordCount())
	}
	return zone, nil
}

// decoder is a bounds-checked cursor over the blob. Every read past the
// end reports ErrCorruptZone instead of panicking.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) read(dst []byte) error {
	if d.remaining() < len(dst) {
		return fmt.Errorf("%w: truncated at offset %d", domain.ErrCorruptZone, d.off)
	}
	copy(dst, d.buf[d.off:])
	d.off += len(dst)
	return nil
}

func (d *decoder) slice(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, fmt.Errorf("%w: truncated at offset %d", domain.ErrCorruptZone, d.off)
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out, nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.slice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.slice(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.slice(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// labelTable reads the shared label table.
func (d *decoder) labelTable() ([]string, error) {
	count, err := d.u32()
	if err != nil {
		return nil, err
	}
	// Every label occupies at least its length prefix plus one byte.
	if int64(count)*2 > int64(d.remaining()) {
		return nil, fmt.Errorf("%w: label count %d exceeds buffer", domain.ErrCorruptZone, count)
	}
	labels := make([]string, count)
	for i := range labels {
		n, err := d.u8()
		if err != nil {
			return nil, err
		}
		if n == 0 || n > 63 {
			return nil, fmt.Errorf("%w: label length %d", domain.ErrCorruptZone, n)
		}
		raw, err := d.slice(int(n))
		if err != nil {
			return nil, err
		}
		labels[i] = string(raw)
	}
	return labels, nil
}

// name reads a label-index encoded name.
func (d *decoder) name(labels []string) (domain.Name, error) {
	count, err := d.u8()
	if err != nil {
		return domain.Name{}, err
	}
	if count > maxNameLabels {
		return domain.Name{}, fmt.Errorf("%w: name has %d labels", domain.ErrCorruptZone, count)
	}
	parts := make([]string, count)
	for i := range parts {
		idx, err := d.u32()
		if err != nil {
			return domain.Name{}, err
		}
		if int(idx) >= len(labels) {
			return domain.Name{}, fmt.Errorf("%w: label index %d out of range", domain.ErrCorruptZone, idx)
		}
		parts[i] = labels[idx]
	}
	n, err := domain.NewName(parts)
	if err != nil {
		return domain.Name{}, fmt.Errorf("%w: %v", domain.ErrCorruptZone, err)
	}
	return n, nil
}

// rrset reads one RRset for the given owner.
func (d *decoder) rrset(owner domain.Name, labels []string) (domain.RRset, error) {
	typeCode, err := d.u16()
	if err != nil {
		return domain.RRset{}, err
	}
	ttl, err := d.u32()
	if err != nil {
		return domain.RRset{}, err
	}
	dataCount, err := d.u16()
	if err != nil {
		return domain.RRset{}, err
	}
	if dataCount == 0 {
		return domain.RRset{}, fmt.Errorf("%w: empty RRset at %s", domain.ErrCorruptZone, owner)
	}
	rrtype := domain.RRType(typeCode)
	data := make([]domain.RData, 0, dataCount)
	for i := uint16(0); i < dataCount; i++ {
		size, err := d.u16()
		if err != nil {
			return domain.RRset{}, err
		}
		payload, err := d.slice(int(size))
		if err != nil {
			return domain.RRset{}, err
		}
		rd, err := decodeRData(rrtype, payload, labels)
		if err != nil {
			return domain.RRset{}, err
		}
		data = append(data, rd)
	}
	return domain.NewRRset(owner, rrtype, ttl, data...)
}

// decodeRData parses one payload. The payload must be consumed exactly.
func decodeRData(rrtype domain.RRType, payload []byte, labels []string) (domain.RData, error) {
	p := &decoder{buf: payload}
	var (
		data domain.RData
		err  error
	)
	switch rrtype {
	case domain.RRTypeA:
		var raw []byte
		if raw, err = p.slice(4); err == nil {
			data, err = domain.NewAData(netip.AddrFrom4([4]byte(raw)))
		}
	case domain.RRTypeAAAA:
		var raw []byte
		if raw, err = p.slice(16); err == nil {
			data, err = domain.NewAAAAData(netip.AddrFrom16([16]byte(raw)))
		}
	case domain.RRTypeCNAME:
		var target domain.Name
		if target, err = p.name(labels); err == nil {
			data, err = domain.NewCNAMEData(target)
		}
	case domain.RRTypeNS:
		var target domain.Name
		if target, err = p.name(labels); err == nil {
			data, err = domain.NewNSData(target)
		}
	case domain.RRTypePTR:
		var target domain.Name
		if target, err = p.name(labels); err == nil {
			data, err = domain.NewPTRData(target)
		}
	case domain.RRTypeMX:
		var pref uint16
		var exchange domain.Name
		if pref, err = p.u16(); err == nil {
			if exchange, err = p.name(labels); err == nil {
				data, err = domain.NewMXData(pref, exchange)
			}
		}
	case domain.RRTypeSRV:
		data, err = decodeSRV(p, labels)
	case domain.RRTypeTXT:
		var raw []byte
		if raw, err = p.slice(p.remaining()); err == nil {
			data, err = domain.NewTXTData(string(raw))
		}
	case domain.RRTypeSOA:
		data, err = decodeSOA(p, labels)
	default:
		var raw []byte
		if raw, err = p.slice(p.remaining()); err == nil {
			data, err = domain.NewRawData(rrtype, raw)
		}
	}
	if err != nil {
		return nil, err
	}
	if p.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d unread bytes in %s payload", domain.ErrCorruptZone, p.remaining(), rrtype)
	}
	return data, nil
}

func decodeSRV(p *decoder, labels []string) (domain.RData, error) {
	priority, err := p.u16()
	if err != nil {
		return nil, err
	}
	weight, err := p.u16()
	if err != nil {
		return nil, err
	}
	port, err := p.u16()
	if err != nil {
		return nil, err
	}
	target, err := p.name(labels)
	if err != nil {
		return nil, err
	}
	return domain.NewSRVData(priority, weight, port, target)
}

func decodeSOA(p *decoder, labels []string) (domain.RData, error) {
	mname, err := p.name(labels)
	if err != nil {
		return nil, err
	}
	rname, err := p.name(labels)
	if err != nil {
		return nil, err
	}
	var nums [5]uint32
	for i := range nums {
		if nums[i], err = p.u32(); err != nil {
			return nil, err
		}
	}
	return domain.NewSOAData(mname, rname, nums[0], nums[1], nums[2], nums[3], nums[4])
}
