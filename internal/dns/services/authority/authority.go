// Package authority manages the live set of zones served by the engine.
// Each origin holds exactly one current version at a time; publishing a
// newer version swaps it in atomically while queries in flight keep the
// snapshot they started with. Versions are reference counted so old
// snapshots are retired only once the last query holding them finishes.
package authority

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haukened/az-dns/internal/dns/common/log"
	"github.com/haukened/az-dns/internal/dns/domain"
	"github.com/haukened/az-dns/internal/dns/services/resolver"
)

// DefaultFalsePositiveRate sizes the per-version owner filters.
const DefaultFalsePositiveRate = 0.01

// version is one immutable published snapshot of a zone plus its owner
// filter. The reference count covers both the authority's own hold on
// the current version and every query in flight against it.
type version struct {
	zone   *domain.Zone
	filter *ownerFilter
	refs   atomic.Int64

	retire func(*version)
}

func (v *version) Zone() *domain.Zone { return v.zone }

func (v *version) MightContain(name domain.Name) bool {
	return v.filter.MightContain(name)
}

func (v *version) acquire() { v.refs.Add(1) }

func (v *version) release() {
	if v.refs.Add(-1) == 0 && v.retire != nil {
		v.retire(v)
	}
}

var _ resolver.ZoneView = (*version)(nil)

// originState serializes publishes for one origin and tracks which of
// its versions are still referenced.
type originState struct {
	mu      sync.Mutex
	current *version
	live    map[*version]struct{}
}

// Authority routes query names to zones by longest matching origin and
// hands out counted references to the current version of each.
type Authority struct {
	mu      sync.RWMutex
	origins map[string]*originState

	fpRate float64
	logger log.Logger
}

// Options configures an Authority.
type Options struct {
	// FalsePositiveRate for the per-version owner filters. Zero selects
	// DefaultFalsePositiveRate.
	FalsePositiveRate float64
	Logger            log.Logger
}

// New creates an empty Authority.
func New(opts Options) *Authority {
	if opts.FalsePositiveRate <= 0 {
		opts.FalsePositiveRate = DefaultFalsePositiveRate
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Authority{
		origins: make(map[string]*originState),
		fpRate:  opts.FalsePositiveRate,
		logger:  opts.Logger,
	}
}

// Publish installs z as the current version for its origin. The first
// publish for an origin always succeeds; later publishes must carry a
// strictly greater serial or ErrStaleUpdate is returned. Queries that
// already hold the previous version keep it until they release it.
func (a *Authority) Publish(z *domain.Zone) error {
	state := a.stateFor(z.Origin())

	state.mu.Lock()
	defer state.mu.Unlock()

	if prev := state.current; prev != nil && z.Serial() <= prev.zone.Serial() {
		return fmt.Errorf("%w: serial %d, current is %d", domain.ErrStaleUpdate, z.Serial(), prev.zone.Serial())
	}

	next := &version{
		zone:   z,
		filter: newOwnerFilter(z, a.fpRate),
	}
	next.retire = func(v *version) {
		state.mu.Lock()
		delete(state.live, v)
		state.mu.Unlock()
	}
	next.acquire() // the authority's own hold, dropped on replacement
	state.live[next] = struct{}{}

	prev := state.current
	state.current = next
	if prev != nil {
		// Drop our hold without re-entering state.mu.
		if prev.refs.Add(-1) == 0 {
			delete(state.live, prev)
		}
	}

	a.logger.Info(map[string]any{
		"origin":  z.Origin().String(),
		"serial":  z.Serial(),
		"records": z.RecordCount(),
	}, "zone published")
	return nil
}

// Drop removes an origin entirely. Queries holding its versions keep
// them until released; new queries no longer route to it.
func (a *Authority) Drop(origin domain.Name) bool {
	a.mu.Lock()
	state, ok := a.origins[origin.Key()]
	if ok {
		delete(a.origins, origin.Key())
	}
	a.mu.Unlock()
	if !ok {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if prev := state.current; prev != nil {
		state.current = nil
		if prev.refs.Add(-1) == 0 {
			delete(state.live, prev)
		}
	}
	return true
}

// View routes qname to the zone with the longest matching origin and
// returns a counted reference to its current version. The caller must
// invoke release exactly once when done with the view.
func (a *Authority) View(qname domain.Name) (resolver.ZoneView, func(), bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for suffix := qname; ; suffix = suffix.Parent() {
		if state, ok := a.origins[suffix.Key()]; ok {
			if v := state.snapshot(); v != nil {
				return v, v.release, true
			}
		}
		if suffix.IsRoot() {
			return nil, nil, false
		}
	}
}

// Current returns a counted reference to the current version of origin
// without suffix routing. Used by publishers inspecting their own zone.
func (a *Authority) Current(origin domain.Name) (resolver.ZoneView, func(), bool) {
	a.mu.RLock()
	state, ok := a.origins[origin.Key()]
	a.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	if v := state.snapshot(); v != nil {
		return v, v.release, true
	}
	return nil, nil, false
}

// Origins lists the origins currently routed, in no particular order.
func (a *Authority) Origins() []domain.Name {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.Name, 0, len(a.origins))
	for _, state := range a.origins {
		state.mu.Lock()
		if state.current != nil {
			out = append(out, state.current.zone.Origin())
		}
		state.mu.Unlock()
	}
	return out
}

// LiveVersions reports how many versions of origin are still held,
// including the current one. Superseded versions linger only while a
// query still references them.
func (a *Authority) LiveVersions(origin domain.Name) int {
	a.mu.RLock()
	state, ok := a.origins[origin.Key()]
	a.mu.RUnlock()
	if !ok {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.live)
}

func (a *Authority) stateFor(origin domain.Name) *originState {
	key := origin.Key()

	a.mu.RLock()
	state, ok := a.origins[key]
	a.mu.RUnlock()
	if ok {
		return state
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if state, ok = a.origins[key]; ok {
		return state
	}
	state = &originState{live: make(map[*version]struct{})}
	a.origins[key] = state
	return state
}

// snapshot acquires a reference to the current version, or nil if the
// origin has none.
func (s *originState) snapshot() *version {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	s.current.acquire()
	return s.current
}

var _ resolver.ZoneSource = (*Authority)(nil)
