// Package blobstore persists encoded zone blobs in bbolt, keyed by
// origin. Each origin keeps a single current blob plus metadata for the
// serial and publish time, so the engine can reload its last published
// state on startup without reparsing source zone documents.
package blobstore

import (
	"encoding/binary"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/az-dns/internal/dns/common/clock"
	"github.com/haukened/az-dns/internal/dns/domain"
)

var (
	bucketZones = []byte("zones")
	bucketMeta  = []byte("meta")
)

// Meta describes a stored blob without decoding it.
type Meta struct {
	Serial      uint32
	UpdatedUnix int64
}

// Store is a bbolt-backed archive of encoded zones.
type Store struct {
	db    *bbolt.DB
	clock clock.Clock
}

// Open opens (or creates) the archive at path and ensures its buckets
// exist. A nil clk selects the real clock.
func Open(path string, clk clock.Clock) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketZones); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Store{db: db, clock: clk}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put stores blob as the current encoded zone for origin. A stored
// serial greater than or equal to serial is rejected with
// ErrStaleUpdate so the archive stays monotonic with the live set.
func (s *Store) Put(origin domain.Name, serial uint32, blob []byte) error {
	key := []byte(origin.Key())
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(key); len(v) >= 4 {
			if stored := binary.BigEndian.Uint32(v); serial <= stored {
				return fmt.Errorf("%w: serial %d, stored is %d", domain.ErrStaleUpdate, serial, stored)
			}
		}
		mbuf := make([]byte, 12)
		binary.BigEndian.PutUint32(mbuf[:4], serial)
		binary.BigEndian.PutUint64(mbuf[4:], uint64(s.clock.Now().Unix()))
		if err := meta.Put(key, mbuf); err != nil {
			return err
		}
		return tx.Bucket(bucketZones).Put(key, blob)
	})
}

// Get returns the current blob for origin, or ok=false if none is stored.
func (s *Store) Get(origin domain.Name) (blob []byte, ok bool, err error) {
	key := []byte(origin.Key())
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketZones).Get(key)
		if v == nil {
			return nil
		}
		blob = make([]byte, len(v))
		copy(blob, v)
		ok = true
		return nil
	})
	return blob, ok, err
}

// Stat returns the stored metadata for origin without reading the blob.
func (s *Store) Stat(origin domain.Name) (Meta, bool, error) {
	var (
		m     Meta
		found bool
	)
	key := []byte(origin.Key())
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(key)
		if len(v) != 12 {
			return nil
		}
		m.Serial = binary.BigEndian.Uint32(v[:4])
		m.UpdatedUnix = int64(binary.BigEndian.Uint64(v[4:]))
		found = true
		return nil
	})
	return m, found, err
}

// Delete removes the blob and metadata for origin. Deleting an absent
// origin is not an error.
func (s *Store) Delete(origin domain.Name) error {
	key := []byte(origin.Key())
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketZones).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete(key)
	})
}

// Origins lists every origin with a stored blob, as canonical keys.
func (s *Store) Origins() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketZones).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
