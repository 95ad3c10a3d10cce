// Package resolver implements the query-answering algorithm: exact
// match, wildcard substitution and CNAME flattening against a single
// immutable zone snapshot. Every lookup is a synchronous, non-blocking
// function of the snapshot; the only bound on work is the alias hop
// cap, not a timeout.
package resolver

import (
	"fmt"

	"github.com/haukened/az-dns/internal/dns/common/log"
	"github.com/haukened/az-dns/internal/dns/domain"
)

// DefaultMaxChain is the default cap on CNAME hops per resolution.
const DefaultMaxChain = 8

// Resolver answers queries against zone versions supplied by a
// ZoneSource. It holds no mutable state of its own.
type Resolver struct {
	source   ZoneSource
	cache    AnswerCache
	logger   log.Logger
	maxChain int
}

// Options configures a Resolver. Source is required; Cache may be nil
// to disable answer memoization; MaxChain <= 0 selects the default.
type Options struct {
	Source   ZoneSource
	Cache    AnswerCache
	Logger   log.Logger
	MaxChain int
}

// New builds a Resolver.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	maxChain := opts.MaxChain
	if maxChain <= 0 {
		maxChain = DefaultMaxChain
	}
	return &Resolver{
		source:   opts.Source,
		cache:    opts.Cache,
		logger:   logger,
		maxChain: maxChain,
	}
}

// Resolve routes qname to its owning zone and answers the query. If no
// loaded zone contains qname the result is the typed OutOfZone answer.
// ErrResolutionCycle and ErrChainTooLong are per-query failures; the
// zone itself stays loaded and other queries are unaffected.
func (r *Resolver) Resolve(qname domain.Name, qtype domain.RRType) (domain.Answer, error) {
	view, release, ok := r.source.View(qname)
	if !ok {
		return domain.OutOfZoneAnswer(), nil
	}
	defer release()

	key := answerKey(view.Zone(), qname, qtype)
	if r.cache != nil {
		if ans, ok := r.cache.Get(key); ok {
			return ans, nil
		}
	}
	ans, err := r.ResolveIn(view, qname, qtype)
	if err != nil {
		r.logger.Warn(map[string]any{
			"zone":  view.Zone().Origin().String(),
			"qname": qname.String(),
			"qtype": qtype.String(),
			"error": err.Error(),
		}, "resolution failed")
		return domain.Answer{}, err
	}
	if r.cache != nil && ans.Positive() && ans.MinTTL() > 0 {
		r.cache.Set(key, ans)
	}
	return ans, nil
}

// ResolveIn answers a query against one zone view. The view is used
// for the entire resolution even if a newer version is published
// mid-flight; the caller owns the view's lifetime.
func (r *Resolver) ResolveIn(view ZoneView, qname domain.Name, qtype domain.RRType) (domain.Answer, error) {
	zone := view.Zone()
	if !zone.Contains(qname) {
		return domain.OutOfZoneAnswer(), nil
	}
	c := newChase(zone, view, qname, qtype, r.maxChain)
	return c.run()
}

// answerKey builds a cache key scoped to one zone version. Including
// the serial preserves version isolation: entries computed against a
// retired version can never answer for a newer one.
func answerKey(z *domain.Zone, qname domain.Name, qtype domain.RRType) string {
	return fmt.Sprintf("%s|%d|%s|%d", z.Origin().Key(), z.Serial(), qname.Key(), uint16(qtype))
}
