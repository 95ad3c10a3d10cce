package zonefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/az-dns/internal/dns/domain"
)

const testZoneYAML = `
origin: example.com
ttl: 300
soa:
  mname: ns1
  rname: hostmaster
  serial: 42
  refresh: 7200
  retry: 1800
  expire: 604800
  minimum: 300
"@":
  A: "192.0.2.1"
  MX: "10 mail"
www:
  A:
    - "192.0.2.10"
    - "192.0.2.11"
  AAAA: "2001:db8::1"
mail:
  A: "192.0.2.20"
alias:
  CNAME: www
"*":
  A: "192.0.2.100"
_sip._tcp:
  SRV: "0 5 5060 sip.example.com."
txt:
  TXT: "v=spf1 -all"
`

func writeZoneFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeZoneFile(t, "example.com.yaml", testZoneYAML)

	z, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, z)

	assert.True(t, z.Origin().Equal(domain.MustParseName("example.com")))
	assert.Equal(t, uint32(42), z.Serial())

	// Apex records.
	set, ok := z.Exact(domain.MustParseName("example.com"), domain.RRTypeA)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", set.Data[0].(domain.AData).String())

	mx, ok := z.Exact(domain.MustParseName("example.com"), domain.RRTypeMX)
	require.True(t, ok)
	mxData := mx.Data[0].(domain.MXData)
	assert.Equal(t, uint16(10), mxData.Preference)
	assert.True(t, mxData.Exchange.Equal(domain.MustParseName("mail.example.com")),
		"bare targets resolve relative to the origin")

	// Multi-value set.
	set, ok = z.Exact(domain.MustParseName("www.example.com"), domain.RRTypeA)
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, uint32(300), set.TTL)

	// Relative CNAME target.
	cname, ok := z.Exact(domain.MustParseName("alias.example.com"), domain.RRTypeCNAME)
	require.True(t, ok)
	assert.True(t, cname.Data[0].(domain.CNAMEData).Target.Equal(domain.MustParseName("www.example.com")))

	// Wildcard registration.
	got := z.WildcardCandidates(domain.MustParseName("anything.example.com"))
	require.Len(t, got, 1)

	// SRV with absolute target.
	srv, ok := z.Exact(domain.MustParseName("_sip._tcp.example.com"), domain.RRTypeSRV)
	require.True(t, ok)
	srvData := srv.Data[0].(domain.SRVData)
	assert.Equal(t, uint16(5060), srvData.Port)
	assert.True(t, srvData.Target.Equal(domain.MustParseName("sip.example.com")))
}

func TestLoadFileJSON(t *testing.T) {
	path := writeZoneFile(t, "example.org.json", `{
  "origin": "example.org",
  "soa": {"mname": "ns1", "rname": "hostmaster", "serial": 1,
          "refresh": 7200, "retry": 1800, "expire": 604800, "minimum": 300},
  "www": {"A": "192.0.2.1"}
}`)

	z, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, z)
	assert.Equal(t, uint32(1), z.Serial())
	_, ok := z.Exact(domain.MustParseName("www.example.org"), domain.RRTypeA)
	assert.True(t, ok)
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	path := writeZoneFile(t, "notes.txt", "not a zone")
	z, err := LoadFile(path)
	assert.NoError(t, err)
	assert.Nil(t, z)
}

func TestLoadFileMissingSOA(t *testing.T) {
	path := writeZoneFile(t, "broken.yaml", `
origin: example.com
www:
  A: "192.0.2.1"
`)
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, domain.ErrMissingSOA)
}

func TestLoadFileRejectsUnknownType(t *testing.T) {
	path := writeZoneFile(t, "broken.yaml", `
origin: example.com
soa:
  mname: ns1
  rname: hostmaster
  serial: 1
www:
  BOGUS: "whatever"
`)
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestLoadFileRejectsBadRecordValue(t *testing.T) {
	path := writeZoneFile(t, "broken.yaml", `
origin: example.com
soa:
  mname: ns1
  rname: hostmaster
  serial: 1
www:
  A: "not-an-address"
`)
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.com.yaml"), []byte(testZoneYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.org.yaml"), []byte(`
origin: example.org
soa:
  mname: ns1
  rname: hostmaster
  serial: 1
www:
  A: "192.0.2.1"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	zones, err := LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Contains(t, zones, "example.com")
	assert.Contains(t, zones, "example.org")
}

func TestLoadDirectoryRejectsDuplicateOrigin(t *testing.T) {
	dir := t.TempDir()
	doc := `
origin: example.com
soa:
  mname: ns1
  rname: hostmaster
  serial: 1
www:
  A: "192.0.2.1"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(doc), 0o644))

	_, err := LoadDirectory(dir)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}
