package commonjs

import "sync"

// Registry remembers which modules were converted. A proxy for a converted
// module re-exports its raw module object, and a proxy for anything else
// re-exports its default export or namespace.
//
// A module is added after its transform finishes. Whoever reads the entry
// for a module must wait for that module's transform first. Reads before
// then see a stale answer.
type Registry struct {
	modules sync.Map
}

func (r *Registry) Add(id string) {
	r.modules.Store(id, struct{}{})
}

func (r *Registry) Has(id string) bool {
	_, ok := r.modules.Load(id)
	return ok
}
