package resolver

import "github.com/haukened/az-dns/internal/dns/domain"

// ZoneView is one immutable zone version as seen by a single
// resolution. MightContain is a probabilistic fast path: false means
// the owner name is certainly absent from the zone, true means it may
// be present and the index must be consulted.
type ZoneView interface {
	Zone() *domain.Zone
	MightContain(name domain.Name) bool
}

// ZoneSource routes a query name to the zone version that should
// answer it. The returned release function must be called when the
// resolution is finished with the view; it pins the version until then.
type ZoneSource interface {
	View(qname domain.Name) (view ZoneView, release func(), ok bool)
}

// AnswerCache memoizes resolved answers. Implementations must treat
// keys as opaque; the resolver includes the zone serial in every key so
// entries from retired versions can never satisfy a newer query.
type AnswerCache interface {
	Get(key string) (domain.Answer, bool)
	Set(key string, answer domain.Answer)
}

// staticView adapts a bare Zone to ZoneView with no negative filter.
type staticView struct {
	zone *domain.Zone
}

func (v staticView) Zone() *domain.Zone              { return v.zone }
func (v staticView) MightContain(_ domain.Name) bool { return true }

// StaticView wraps a zone for direct, unrouted resolution.
func StaticView(z *domain.Zone) ZoneView { return staticView{zone: z} }
