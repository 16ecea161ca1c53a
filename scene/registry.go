package scene

import "sync"

// Registry maps stable page ids to live rendered pages. It is the sole
// handle the capture pipeline uses to locate a page; no caller reaches into
// another caller's scene directly.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]*Page
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string]*Page)}
}

// Put registers or replaces the page under its id. Pages are replaced
// wholesale on every data or template change; there is no incremental patch
// contract.
func (r *Registry) Put(p *Page) {
	if p == nil || p.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[p.ID] = p
}

// Get returns the page registered under id.
func (r *Registry) Get(id string) (*Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pages[id]
	return p, ok
}

// Remove drops the page when its view unmounts. Removing an unknown id is a
// no-op so unmount cleanup stays idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, id)
}
