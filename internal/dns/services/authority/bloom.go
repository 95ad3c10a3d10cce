package authority

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/az-dns/internal/dns/domain"
)

// ownerFilter is a per-version bloom filter over the zone's owner names.
// A version's zone never changes after publish, so the filter is built
// once and read concurrently without locking. A negative test proves
// the owner does not exist in the version; a positive test only means
// the index must be consulted.
type ownerFilter struct {
	bf *bitsbloom.BloomFilter
}

func newOwnerFilter(z *domain.Zone, fpRate float64) *ownerFilter {
	owners := z.Owners()
	n := len(owners)
	if n == 0 {
		n = 1
	}
	bf := bitsbloom.NewWithEstimates(uint(n), fpRate)
	for _, owner := range owners {
		bf.Add([]byte(owner.Key()))
	}
	return &ownerFilter{bf: bf}
}

func (f *ownerFilter) MightContain(name domain.Name) bool {
	return f.bf.Test([]byte(name.Key()))
}
