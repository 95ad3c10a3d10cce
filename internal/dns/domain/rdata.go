package domain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"
)

// maxRDataLength bounds any single record payload; the binary zone
// format length-prefixes payloads with a uint16.
const maxRDataLength = 65535

// RData is the type-specific data of a resource record. It is a closed
// set of variants: the interpreted types below plus RawData for
// everything else. The unexported method seals the set to this package.
//
// Every variant provides a canonical byte form that is total and
// independent of construction order; it backs record equality, the
// codec's deterministic sort, and resolver deduplication.
type RData interface {
	// Type returns the record type code of this data.
	Type() RRType

	// canonical returns the comparison form for ordering and equality.
	canonical() []byte
}

// CompareRData orders two data values totally: first by type code, then
// by canonical bytes.
func CompareRData(a, b RData) int {
	if c := int(a.Type()) - int(b.Type()); c != 0 {
		return c
	}
	return bytes.Compare(a.canonical(), b.canonical())
}

// EqualRData reports whether two data values are the same type with the
// same canonical form.
func EqualRData(a, b RData) bool {
	return a.Type() == b.Type() && bytes.Equal(a.canonical(), b.canonical())
}

// AData is an IPv4 address record payload.
type AData struct {
	Addr netip.Addr
}

// NewAData validates that addr is IPv4. IPv4-mapped IPv6 addresses are
// unmapped.
func NewAData(addr netip.Addr) (AData, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return AData{}, fmt.Errorf("%w: A data requires an IPv4 address, got %s", ErrMalformedRecord, addr)
	}
	return AData{Addr: addr}, nil
}

// ParseAData parses a dotted-quad IPv4 address.
func ParseAData(s string) (AData, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return AData{}, fmt.Errorf("%w: invalid A address %q", ErrMalformedRecord, s)
	}
	return NewAData(addr)
}

func (d AData) Type() RRType { return RRTypeA }

func (d AData) canonical() []byte {
	b := d.Addr.As4()
	return b[:]
}

func (d AData) String() string { return d.Addr.String() }

// AAAAData is an IPv6 address record payload.
type AAAAData struct {
	Addr netip.Addr
}

// NewAAAAData validates that addr is IPv6.
func NewAAAAData(addr netip.Addr) (AAAAData, error) {
	if !addr.Is6() || addr.Is4In6() {
		return AAAAData{}, fmt.Errorf("%w: AAAA data requires an IPv6 address, got %s", ErrMalformedRecord, addr)
	}
	return AAAAData{Addr: addr}, nil
}

// ParseAAAAData parses an IPv6 address in its textual form.
func ParseAAAAData(s string) (AAAAData, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return AAAAData{}, fmt.Errorf("%w: invalid AAAA address %q", ErrMalformedRecord, s)
	}
	return NewAAAAData(addr)
}

func (d AAAAData) Type() RRType { return RRTypeAAAA }

func (d AAAAData) canonical() []byte {
	b := d.Addr.As16()
	return b[:]
}

func (d AAAAData) String() string { return d.Addr.String() }

// CNAMEData aliases its owner to a canonical target name.
type CNAMEData struct {
	Target Name
}

// NewCNAMEData rejects empty targets; the Name type already enforces
// label and length budgets.
func NewCNAMEData(target Name) (CNAMEData, error) {
	if target.IsRoot() {
		return CNAMEData{}, fmt.Errorf("%w: CNAME target must not be the root", ErrMalformedRecord)
	}
	return CNAMEData{Target: target}, nil
}

func (d CNAMEData) Type() RRType      { return RRTypeCNAME }
func (d CNAMEData) canonical() []byte { return []byte(d.Target.Key()) }
func (d CNAMEData) String() string    { return d.Target.String() }

// NSData names an authoritative name server for its owner.
type NSData struct {
	Target Name
}

func NewNSData(target Name) (NSData, error) {
	if target.IsRoot() {
		return NSData{}, fmt.Errorf("%w: NS target must not be the root", ErrMalformedRecord)
	}
	return NSData{Target: target}, nil
}

func (d NSData) Type() RRType      { return RRTypeNS }
func (d NSData) canonical() []byte { return []byte(d.Target.Key()) }
func (d NSData) String() string    { return d.Target.String() }

// PTRData points back to a name, commonly for reverse DNS.
type PTRData struct {
	Target Name
}

func NewPTRData(target Name) (PTRData, error) {
	if target.IsRoot() {
		return PTRData{}, fmt.Errorf("%w: PTR target must not be the root", ErrMalformedRecord)
	}
	return PTRData{Target: target}, nil
}

func (d PTRData) Type() RRType      { return RRTypePTR }
func (d PTRData) canonical() []byte { return []byte(d.Target.Key()) }
func (d PTRData) String() string    { return d.Target.String() }

// MXData names a mail exchange with a preference; lower preference
// values are tried first.
type MXData struct {
	Preference uint16
	Exchange   Name
}

func NewMXData(preference uint16, exchange Name) (MXData, error) {
	if exchange.IsRoot() {
		return MXData{}, fmt.Errorf("%w: MX exchange must not be the root", ErrMalformedRecord)
	}
	return MXData{Preference: preference, Exchange: exchange}, nil
}

func (d MXData) Type() RRType { return RRTypeMX }

func (d MXData) canonical() []byte {
	out := make([]byte, 2, 2+len(d.Exchange.Key()))
	binary.BigEndian.PutUint16(out, d.Preference)
	return append(out, d.Exchange.Key()...)
}

func (d MXData) String() string {
	return fmt.Sprintf("%d %s", d.Preference, d.Exchange)
}

// SRVData locates a service endpoint (RFC 2782).
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func NewSRVData(priority, weight, port uint16, target Name) (SRVData, error) {
	if target.IsRoot() {
		return SRVData{}, fmt.Errorf("%w: SRV target must not be the root", ErrMalformedRecord)
	}
	return SRVData{Priority: priority, Weight: weight, Port: port, Target: target}, nil
}

func (d SRVData) Type() RRType { return RRTypeSRV }

func (d SRVData) canonical() []byte {
	out := make([]byte, 6, 6+len(d.Target.Key()))
	binary.BigEndian.PutUint16(out[0:], d.Priority)
	binary.BigEndian.PutUint16(out[2:], d.Weight)
	binary.BigEndian.PutUint16(out[4:], d.Port)
	return append(out, d.Target.Key()...)
}

func (d SRVData) String() string {
	return fmt.Sprintf("%d %d %d %s", d.Priority, d.Weight, d.Port, d.Target)
}

// TXTData holds descriptive text as a single UTF-8 string. Splitting
// into 255-octet wire segments is the message layer's concern.
type TXTData struct {
	Text string
}

func NewTXTData(text string) (TXTData, error) {
	if len(text) > maxRDataLength {
		return TXTData{}, fmt.Errorf("%w: TXT data exceeds %d octets", ErrMalformedRecord, maxRDataLength)
	}
	return TXTData{Text: text}, nil
}

func (d TXTData) Type() RRType      { return RRTypeTXT }
func (d TXTData) canonical() []byte { return []byte(d.Text) }
func (d TXTData) String() string    { return d.Text }

// SOAData is the start-of-authority payload; Serial drives zone
// versioning.
type SOAData struct {
	MName   Name // primary name server
	RName   Name // responsible mailbox, dots-as-at form
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func NewSOAData(mname, rname Name, serial, refresh, retry, expire, minimum uint32) (SOAData, error) {
	if mname.IsRoot() || rname.IsRoot() {
		return SOAData{}, fmt.Errorf("%w: SOA mname and rname must not be the root", ErrMalformedRecord)
	}
	return SOAData{
		MName:   mname,
		RName:   rname,
		Serial:  serial,
		Refresh: refresh,
		Retry:   retry,
		Expire:  expire,
		Minimum: minimum,
	}, nil
}

func (d SOAData) Type() RRType { return RRTypeSOA }

func (d SOAData) canonical() []byte {
	var out []byte
	out = append(out, d.MName.Key()...)
	out = append(out, 0)
	out = append(out, d.RName.Key()...)
	out = append(out, 0)
	nums := make([]byte, 20)
	binary.BigEndian.PutUint32(nums[0:], d.Serial)
	binary.BigEndian.PutUint32(nums[4:], d.Refresh)
	binary.BigEndian.PutUint32(nums[8:], d.Retry)
	binary.BigEndian.PutUint32(nums[12:], d.Expire)
	binary.BigEndian.PutUint32(nums[16:], d.Minimum)
	return append(out, nums...)
}

func (d SOAData) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d",
		d.MName, d.RName, d.Serial, d.Refresh, d.Retry, d.Expire, d.Minimum)
}

// RawData carries a record type the engine does not interpret: the type
// code plus the payload exactly as stored. It exists so unknown types
// survive encode/decode round trips bit-exactly.
type RawData struct {
	Code  RRType
	Bytes []byte
}

func NewRawData(code RRType, payload []byte) (RawData, error) {
	if code.IsInterpreted() {
		return RawData{}, fmt.Errorf("%w: type %s must use its structured variant", ErrMalformedRecord, code)
	}
	if len(payload) > maxRDataLength {
		return RawData{}, fmt.Errorf("%w: raw data exceeds %d octets", ErrMalformedRecord, maxRDataLength)
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return RawData{Code: code, Bytes: cp}, nil
}

func (d RawData) Type() RRType      { return d.Code }
func (d RawData) canonical() []byte { return d.Bytes }

func (d RawData) String() string {
	return fmt.Sprintf("\\# %d %x", len(d.Bytes), d.Bytes)
}
