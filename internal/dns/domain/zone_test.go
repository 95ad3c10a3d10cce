package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSOA(t *testing.T, serial uint32) SOAData {
	t.Helper()
	soa, err := NewSOAData(
		MustParseName("ns1.example.com"),
		MustParseName("hostmaster.example.com"),
		serial, 7200, 1800, 604800, 300,
	)
	require.NoError(t, err)
	return soa
}

func mustSet(t *testing.T, owner string, rrtype RRType, ttl uint32, data ...RData) RRset {
	t.Helper()
	set, err := NewRRset(MustParseName(owner), rrtype, ttl, data...)
	require.NoError(t, err)
	return set
}

// testZone builds a small zone rooted at example.com with an exact
// host, a wildcard at two depths, and an apex record.
func testZone(t *testing.T, serial uint32) *Zone {
	t.Helper()
	origin := MustParseName("example.com")
	b := NewZoneBuilder(origin)
	require.NoError(t, b.Add(mustSet(t, "example.com", RRTypeSOA, 300, testSOA(t, serial))))
	require.NoError(t, b.Add(mustSet(t, "example.com", RRTypeA, 300, mustA(t, "192.0.2.1"))))
	require.NoError(t, b.Add(mustSet(t, "www.example.com", RRTypeA, 300, mustA(t, "192.0.2.10"))))
	require.NoError(t, b.Add(mustSet(t, "*.example.com", RRTypeA, 300, mustA(t, "192.0.2.100"))))
	require.NoError(t, b.Add(mustSet(t, "*.sub.example.com", RRTypeA, 300, mustA(t, "192.0.2.200"))))
	z, err := b.Build()
	require.NoError(t, err)
	return z
}

func TestZoneBuilderRequiresSOA(t *testing.T) {
	b := NewZoneBuilder(MustParseName("example.com"))
	require.NoError(t, b.Add(mustSet(t, "www.example.com", RRTypeA, 300, mustA(t, "192.0.2.10"))))
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrMissingSOA)
}

func TestZoneBuilderRejectsSecondSOA(t *testing.T) {
	b := NewZoneBuilder(MustParseName("example.com"))
	require.NoError(t, b.Add(mustSet(t, "example.com", RRTypeSOA, 300, testSOA(t, 1))))
	err := b.Add(mustSet(t, "example.com", RRTypeSOA, 300, testSOA(t, 2)))
	assert.ErrorIs(t, err, ErrDuplicateSOA)
}

func TestZoneBuilderRejectsSOAOffOrigin(t *testing.T) {
	b := NewZoneBuilder(MustParseName("example.com"))
	err := b.Add(mustSet(t, "sub.example.com", RRTypeSOA, 300, testSOA(t, 1)))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestZoneBuilderRejectsOwnerOutOfZone(t *testing.T) {
	b := NewZoneBuilder(MustParseName("example.com"))
	err := b.Add(mustSet(t, "www.example.net", RRTypeA, 300, mustA(t, "192.0.2.1")))
	assert.ErrorIs(t, err, ErrOwnerOutOfZone)
}

func TestZoneBuilderRejectsDuplicateRRset(t *testing.T) {
	b := NewZoneBuilder(MustParseName("example.com"))
	require.NoError(t, b.Add(mustSet(t, "www.example.com", RRTypeA, 300, mustA(t, "192.0.2.1"))))
	err := b.Add(mustSet(t, "WWW.example.com", RRTypeA, 300, mustA(t, "192.0.2.2")))
	assert.ErrorIs(t, err, ErrMalformedRecord, "owner comparison folds case")
}

func TestZoneSerialComesFromSOA(t *testing.T) {
	z := testZone(t, 42)
	assert.Equal(t, uint32(42), z.Serial())
	assert.Equal(t, uint32(42), z.SOA().Serial)
}

func TestZoneExactLookup(t *testing.T) {
	z := testZone(t, 1)

	set, ok := z.Exact(MustParseName("www.example.com"), RRTypeA)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.10", set.Data[0].(AData).String())

	_, ok = z.Exact(MustParseName("www.example.com"), RRTypeAAAA)
	assert.False(t, ok, "type miss at an existing owner")

	_, ok = z.Exact(MustParseName("missing.example.com"), RRTypeA)
	assert.False(t, ok)

	// Exact lookups never apply wildcards.
	_, ok = z.Exact(MustParseName("anything.example.com"), RRTypeA)
	assert.False(t, ok)
}

func TestZoneContainsAndApex(t *testing.T) {
	z := testZone(t, 1)
	assert.True(t, z.Contains(MustParseName("deep.under.example.com")))
	assert.False(t, z.Contains(MustParseName("example.net")))
	assert.True(t, z.IsApex(MustParseName("EXAMPLE.COM")))
	assert.False(t, z.IsApex(MustParseName("www.example.com")))
}

func TestZoneWildcardCandidatesOrder(t *testing.T) {
	z := testZone(t, 1)

	// Both wildcards cover this name; the deeper suffix comes first.
	got := z.WildcardCandidates(MustParseName("host.sub.example.com"))
	require.Len(t, got, 2)
	assert.Equal(t, "sub.example.com", got[0].Suffix.String())
	assert.Equal(t, "example.com", got[1].Suffix.String())

	// One level down only the apex wildcard matches.
	got = z.WildcardCandidates(MustParseName("host.example.com"))
	require.Len(t, got, 1)
	assert.Equal(t, "example.com", got[0].Suffix.String())

	// A wildcard never matches the bare suffix it is registered at.
	got = z.WildcardCandidates(MustParseName("example.com"))
	assert.Empty(t, got)
}

func TestZoneOwnersCanonicalOrder(t *testing.T) {
	z := testZone(t, 1)
	owners := z.Owners()
	require.Len(t, owners, 4)
	for i := 0; i < len(owners)-1; i++ {
		assert.Negative(t, owners[i].Compare(owners[i+1]),
			"%s should sort before %s", owners[i], owners[i+1])
	}
	assert.True(t, owners[0].Equal(z.Origin()), "origin sorts first")
}

func TestZoneSetsAtOrderedByType(t *testing.T) {
	z := testZone(t, 1)
	sets := z.SetsAt(MustParseName("example.com"))
	require.Len(t, sets, 2)
	assert.Equal(t, RRTypeA, sets[0].Type)
	assert.Equal(t, RRTypeSOA, sets[1].Type)
	assert.Nil(t, z.SetsAt(MustParseName("missing.example.com")))
}

func TestZoneRecordCount(t *testing.T) {
	z := testZone(t, 1)
	assert.Equal(t, 5, z.RecordCount())
}

func TestZoneEqual(t *testing.T) {
	a := testZone(t, 1)
	b := testZone(t, 1)
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	c := testZone(t, 2)
	assert.False(t, a.Equal(c))
}
