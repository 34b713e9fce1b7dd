package plugin

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// Registry holds every registered provider and the capability index built
// from their declared pairs. Registration happens once at startup under a
// mutex; lookups after load take no lock.
type Registry struct {
	mu sync.Mutex

	plugins  map[string]Plugin
	descs    map[string]Descriptor
	pairs    map[string][]CapabilityPair
	byPair   map[CapabilityPair][]string
	rank     map[string]int
	priority map[string]int
	nextSeq  int
}

// NewRegistry creates a registry. The priority list orders capability
// lookups: lowest index is the most trusted provider. Providers absent
// from the list rank after it in registration order.
func NewRegistry(priority []string) *Registry {
	p := make(map[string]int, len(priority))
	for i, id := range priority {
		p[id] = i
	}
	return &Registry{
		plugins:  make(map[string]Plugin),
		descs:    make(map[string]Descriptor),
		pairs:    make(map[string][]CapabilityPair),
		byPair:   make(map[CapabilityPair][]string),
		rank:     make(map[string]int),
		priority: p,
	}
}

// Register adds a plugin to the registry and indexes its declared
// capability pairs. Re-registering the identical descriptor and
// capability set is a no-op; any change under the same id fails, so a
// plugin can never silently shed or swap declared pairs.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return exception.ErrNilPlugin
	}
	desc := p.Descriptor()
	if desc.ProviderID == "" {
		return exception.ErrInvalidDescriptor
	}
	caps := p.Capabilities()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.descs[desc.ProviderID]; ok {
		if reflect.DeepEqual(existing, desc) && reflect.DeepEqual(r.pairs[desc.ProviderID], caps) {
			return nil
		}
		return exception.ErrDuplicateProvider
	}
	r.plugins[desc.ProviderID] = p
	r.descs[desc.ProviderID] = desc
	r.pairs[desc.ProviderID] = caps
	r.rank[desc.ProviderID] = r.rankFor(desc.ProviderID)
	r.nextSeq++

	for _, pair := range caps {
		ids := append(r.byPair[pair], desc.ProviderID)
		sort.SliceStable(ids, func(i, j int) bool {
			return r.rank[ids[i]] < r.rank[ids[j]]
		})
		r.byPair[pair] = ids
	}
	return nil
}

func (r *Registry) rankFor(id string) int {
	if i, ok := r.priority[id]; ok {
		return i
	}
	return len(r.priority) + r.nextSeq
}

// Lookup returns providers whose declared capability set contains the
// exact pair, most trusted first.
func (r *Registry) Lookup(asset enum.AssetType, data enum.DataType) []string {
	ids := r.byPair[CapabilityPair{Asset: asset, Data: data}]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// LookupByName matches a case-insensitive fragment against provider ids,
// display names and aliases. It exists so an explicit user choice is
// honored even when the provider's declared capabilities are incomplete.
func (r *Registry) LookupByName(fragment string) []string {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return nil
	}
	var out []string
	for id, desc := range r.descs {
		if matchDescriptor(desc, fragment) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := r.rank[out[i]], r.rank[out[j]]
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

func matchDescriptor(desc Descriptor, fragment string) bool {
	if strings.Contains(strings.ToLower(desc.ProviderID), fragment) {
		return true
	}
	if strings.Contains(strings.ToLower(desc.DisplayName), fragment) {
		return true
	}
	for _, alias := range desc.Aliases {
		if strings.Contains(strings.ToLower(alias), fragment) {
			return true
		}
	}
	return false
}

// Plugin returns the registered plugin for an id.
func (r *Registry) Plugin(id string) (Plugin, bool) {
	p, ok := r.plugins[id]
	return p, ok
}

// Descriptor returns the registered descriptor for an id.
func (r *Registry) Descriptor(id string) (Descriptor, bool) {
	d, ok := r.descs[id]
	return d, ok
}

// Providers returns every registered provider id, most trusted first.
func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.descs))
	for id := range r.descs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := r.rank[out[i]], r.rank[out[j]]
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}
