package router

import (
	"github.com/yanun0323/logs"

	"main/internal/model/enum"
	"main/internal/plugin"
	"main/pkg/exception"
)

// Request asks for an ordered provider plan for one (asset, data) pair.
// ExplicitProvider, when set, is a user override that outranks the
// capability-derived ranking.
type Request struct {
	AssetType        enum.AssetType
	DataType         enum.DataType
	ExplicitProvider string
}

// Router turns a request into an ordered candidate plan. It performs no
// I/O; the caller invokes candidates in order until one succeeds.
type Router struct {
	registry *plugin.Registry
}

func New(registry *plugin.Registry) *Router {
	return &Router{registry: registry}
}

// Resolve returns candidate provider ids in invocation order.
//
// Explicit-name matches come first, even when the named provider's
// declared capabilities omit the requested pair: an explicit choice is
// honored over an incomplete capability declaration. Capability matches
// follow, de-duplicated preserving first-seen order. A miss on one path
// alone is not a failure; only the combined empty plan is surfaced.
func (r *Router) Resolve(req Request) ([]string, error) {
	var plan []string
	seen := make(map[string]struct{})

	if req.ExplicitProvider != "" {
		for _, id := range r.registry.LookupByName(req.ExplicitProvider) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			plan = append(plan, id)
		}
	}

	for _, id := range r.registry.Lookup(req.AssetType, req.DataType) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		plan = append(plan, id)
	}

	if len(plan) == 0 {
		logs.Warnf("router: no provider for (%s, %s), explicit=%q, registered=%v",
			req.AssetType, req.DataType, req.ExplicitProvider, r.registry.Providers())
		return nil, &exception.NoProviderAvailableError{
			AssetType: req.AssetType,
			DataType:  req.DataType,
			Explicit:  req.ExplicitProvider,
		}
	}
	return plan, nil
}
