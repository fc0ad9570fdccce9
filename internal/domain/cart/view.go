package cart

import "sync"

// View is a client-side cart: the last authoritative snapshot plus local
// removals not yet confirmed by one. A snapshot always wins over local state.
type View struct {
	mu      sync.RWMutex
	items   []LineItem
	removed map[string]struct{}
	loaded  bool
}

func NewView() *View {
	return &View{removed: make(map[string]struct{})}
}

// Items returns the visible cart
func (v *View) Items() []LineItem {
	v.mu.RLock()
	defer v.mu.RUnlock()

	visible := make([]LineItem, 0, len(v.items))
	for _, item := range Clone(v.items) {
		if _, gone := v.removed[item.ProductID]; !gone {
			visible = append(visible, item)
		}
	}
	return visible
}

func (v *View) Total() int {
	return Total(v.Items())
}

// Loaded reports whether a snapshot was ever applied
func (v *View) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Pending returns the number of unconfirmed local removals
func (v *View) Pending() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.removed)
}

// MarkRemoved hides a line until the next snapshot
func (v *View) MarkRemoved(productID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed[productID] = struct{}{}
}

// Reconcile installs an authoritative snapshot and drops all pending patches
func (v *View) Reconcile(snapshot []LineItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = Clone(snapshot)
	v.removed = make(map[string]struct{})
	v.loaded = true
}
