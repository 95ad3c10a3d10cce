package blobstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/az-dns/internal/dns/common/clock"
	"github.com/haukened/az-dns/internal/dns/domain"
)

func openTestStore(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "zones.db"), clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t, nil)
	origin := domain.MustParseName("example.com")
	blob := []byte("encoded zone bytes")

	require.NoError(t, s.Put(origin, 1, blob))

	got, ok, err := s.Get(origin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob, got)
}

func TestGetMissingOrigin(t *testing.T) {
	s := openTestStore(t, nil)
	_, ok, err := s.Get(domain.MustParseName("missing.example.com"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutRejectsStaleSerial(t *testing.T) {
	s := openTestStore(t, nil)
	origin := domain.MustParseName("example.com")

	require.NoError(t, s.Put(origin, 5, []byte("v5")))

	err := s.Put(origin, 5, []byte("v5 again"))
	assert.ErrorIs(t, err, domain.ErrStaleUpdate)
	err = s.Put(origin, 4, []byte("v4"))
	assert.ErrorIs(t, err, domain.ErrStaleUpdate)

	// The stored blob is untouched after a rejected put.
	got, ok, err := s.Get(origin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v5"), got)

	require.NoError(t, s.Put(origin, 6, []byte("v6")))
}

func TestStat(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, clock.NewMockClock(now))
	origin := domain.MustParseName("example.com")

	_, ok, err := s.Stat(origin)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(origin, 7, []byte("blob")))

	meta, ok, err := s.Stat(origin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(7), meta.Serial)
	assert.Equal(t, now.Unix(), meta.UpdatedUnix)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t, nil)
	origin := domain.MustParseName("example.com")

	require.NoError(t, s.Put(origin, 1, []byte("blob")))
	require.NoError(t, s.Delete(origin))

	_, ok, err := s.Get(origin)
	require.NoError(t, err)
	assert.False(t, ok)

	// Serial gate resets with the metadata.
	require.NoError(t, s.Put(origin, 1, []byte("blob")))
	require.NoError(t, s.Delete(domain.MustParseName("absent.example.net")))
}

func TestOrigins(t *testing.T) {
	s := openTestStore(t, nil)
	require.NoError(t, s.Put(domain.MustParseName("example.com"), 1, []byte("a")))
	require.NoError(t, s.Put(domain.MustParseName("Example.NET"), 1, []byte("b")))

	origins, err := s.Origins()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"example.com", "example.net"}, origins,
		"origins are stored under their folded keys")
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.db")
	origin := domain.MustParseName("example.com")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(origin, 3, []byte("blob")))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, ok, err := s.Get(origin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("blob"), got)

	meta, ok, err := s.Stat(origin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(3), meta.Serial)
}
