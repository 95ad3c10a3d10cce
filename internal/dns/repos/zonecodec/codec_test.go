package zonecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/az-dns/internal/dns/domain"
)

func mustData(d domain.RData, err error) domain.RData {
	if err != nil {
		panic(err)
	}
	return d
}

func addSet(t testing.TB, b *domain.ZoneBuilder, owner string, rrtype domain.RRType, ttl uint32, data ...domain.RData) {
	t.Helper()
	set, err := domain.NewRRset(domain.MustParseName(owner), rrtype, ttl, data...)
	require.NoError(t, err)
	require.NoError(t, b.Add(set))
}

// buildTestZone covers every interpreted type, a raw type, a wildcard
// owner, and shared labels between owners and targets.
func buildTestZone(t testing.TB, serial uint32) *domain.Zone {
	t.Helper()
	b := domain.NewZoneBuilder(domain.MustParseName("example.com"))

	soa := mustData(domain.NewSOAData(
		domain.MustParseName("ns1.example.com"),
		domain.MustParseName("hostmaster.example.com"),
		serial, 7200, 1800, 604800, 300,
	))
	addSet(t, b, "example.com", domain.RRTypeSOA, 300, soa)
	addSet(t, b, "example.com", domain.RRTypeNS, 86400,
		mustData(domain.NewNSData(domain.MustParseName("ns1.example.com"))),
		mustData(domain.NewNSData(domain.MustParseName("ns2.example.com"))),
	)
	addSet(t, b, "example.com", domain.RRTypeMX, 3600,
		mustData(domain.NewMXData(10, domain.MustParseName("mail.example.com"))),
	)
	addSet(t, b, "www.example.com", domain.RRTypeA, 300,
		mustData(domain.ParseAData("192.0.2.1")),
		mustData(domain.ParseAData("192.0.2.2")),
	)
	addSet(t, b, "www.example.com", domain.RRTypeAAAA, 300,
		mustData(domain.ParseAAAAData("2001:db8::1")),
	)
	addSet(t, b, "mail.example.com", domain.RRTypeA, 300,
		mustData(domain.ParseAData("192.0.2.3")),
	)
	addSet(t, b, "alias.example.com", domain.RRTypeCNAME, 300,
		mustData(domain.NewCNAMEData(domain.MustParseName("www.example.com"))),
	)
	addSet(t, b, "_sip._tcp.example.com", domain.RRTypeSRV, 300,
		mustData(domain.NewSRVData(0, 5, 5060, domain.MustParseName("sip.example.com"))),
	)
	addSet(t, b, "example.com", domain.RRTypeTXT, 300,
		mustData(domain.NewTXTData("v=spf1 -all")),
	)
	addSet(t, b, "4.3.2.1.in-addr.arpa.example.com", domain.RRTypePTR, 300,
		mustData(domain.NewPTRData(domain.MustParseName("www.example.com"))),
	)
	addSet(t, b, "*.example.com", domain.RRTypeA, 300,
		mustData(domain.ParseAData("192.0.2.100")),
	)
	addSet(t, b, "opaque.example.com", domain.RRType(99), 300,
		mustData(domain.NewRawData(domain.RRType(99), []byte{0xde, 0xad, 0xbe, 0xef})),
	)

	z, err := b.Build()
	require.NoError(t, err)
	return z
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	z := buildTestZone(t, 7)

	blob, err := Encode(z)
	require.NoError(t, err)
	require.True(t, len(blob) > len(magic))

	decoded, err := Decode(blob)
	require.NoError(t, err)
	assert.True(t, z.Equal(decoded), "decoded zone differs from the original")
	assert.Equal(t, z.Serial(), decoded.Serial())
	assert.Equal(t, z.RecordCount(), decoded.RecordCount())
}

func TestEncodeIsDeterministic(t *testing.T) {
	// Two builds with different insertion order must produce identical
	// bytes; the codec sorts owners, types and payloads canonically.
	z := buildTestZone(t, 7)
	first, err := Encode(z)
	require.NoError(t, err)
	second, err := Encode(z)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, err := Decode(first)
	require.NoError(t, err)
	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, first, reencoded, "decode then encode must be stable")
}

func TestDecodeRoundTripPreservesWildcards(t *testing.T) {
	z := buildTestZone(t, 7)
	blob, err := Encode(z)
	require.NoError(t, err)
	decoded, err := Decode(blob)
	require.NoError(t, err)

	got := decoded.WildcardCandidates(domain.MustParseName("anything.example.com"))
	require.Len(t, got, 1, "wildcard index is rebuilt during decode")
	assert.Equal(t, "example.com", got[0].Suffix.String())
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	z := buildTestZone(t, 7)
	blob, err := Encode(z)
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[0] ^= 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, domain.ErrCorruptZone)
	})

	t.Run("unknown version", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[6] = 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, domain.ErrCorruptZone)
	})

	t.Run("header serial does not match SOA", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[8] ^= 0xff // serial field
		_, err := Decode(bad)
		assert.ErrorIs(t, err, domain.ErrCorruptZone)
	})

	t.Run("header record count does not match body", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[12] ^= 0xff // record count field
		_, err := Decode(bad)
		assert.ErrorIs(t, err, domain.ErrCorruptZone)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, domain.ErrCorruptZone)
	})
}

func TestDecodeTruncationAtEveryLength(t *testing.T) {
	// Any strict prefix of a valid blob must error cleanly; no prefix
	// may decode (the trailing data checks see to the rest).
	z := buildTestZone(t, 7)
	blob, err := Encode(z)
	require.NoError(t, err)

	for n := 0; n < len(blob); n++ {
		_, err := Decode(blob[:n])
		require.Errorf(t, err, "prefix of length %d decoded successfully", n)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	z := buildTestZone(t, 7)
	blob, err := Encode(z)
	require.NoError(t, err)

	_, err = Decode(append(blob, 0x00))
	assert.ErrorIs(t, err, domain.ErrCorruptZone)
}

func TestDecodeRejectsOversizedCounts(t *testing.T) {
	// A tiny blob claiming a huge label table must fail before any
	// large allocation.
	bad := append([]byte(nil), magic[:]...)
	bad = append(bad, 0, 0)                   // version
	bad = append(bad, 0, 0, 0, 1)             // serial
	bad = append(bad, 0, 0, 0, 1)             // record count
	bad = append(bad, 0xff, 0xff, 0xff, 0xff) // label count
	_, err := Decode(bad)
	assert.ErrorIs(t, err, domain.ErrCorruptZone)
}

func TestDecodeRejectsBadLabelIndex(t *testing.T) {
	z := buildTestZone(t, 7)
	blob, err := Encode(z)
	require.NoError(t, err)

	// The origin name begins right after the label table; its first
	// label index is 4 bytes. Point it past the table.
	idx := findOriginOffset(blob)
	bad := append([]byte(nil), blob...)
	bad[idx+1] = 0xff
	bad[idx+2] = 0xff
	_, err = Decode(bad)
	assert.ErrorIs(t, err, domain.ErrCorruptZone)
}

// findOriginOffset walks the fixed header and label table of a valid
// blob to locate the origin name.
func findOriginOffset(blob []byte) int {
	off := len(magic) + 2 + 4 + 4 // version, serial, record count
	count := int(uint32(blob[off])<<24 | uint32(blob[off+1])<<16 | uint32(blob[off+2])<<8 | uint32(blob[off+3]))
	off += 4
	for i := 0; i < count; i++ {
		off += 1 + int(blob[off])
	}
	return off
}

func BenchmarkEncode(b *testing.B) {
	z := buildTestZone(b, 7)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(z); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	z := buildTestZone(b, 7)
	blob, err := Encode(z)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(blob); err != nil {
			b.Fatal(err)
		}
	}
}
