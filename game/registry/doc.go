// Package registry provides a generic, internally synchronized key→value
// map used as the single source of truth for connected clients, active
// games and pending challenges.
//
// Core Type:
//
// Map[K, V] guards a plain map with a sync.RWMutex. Every exported method
// is safe under unbounded concurrent callers; no external locking is needed
// for single operations. Multi-step sequences (check-then-store, timer
// handler re-validation) are NOT atomic and must re-check state through
// TryGet after the fact.
//
// Usage:
//
//	clients := registry.New[string, *ClientSession]()
//	if err := clients.Store(name, session); err != nil {
//		// registry.ErrDuplicateKey: name already connected
//	}
//	session, ok := clients.TryGet(name)
//
// Values are constrained to comparable so KeyOf can recover the key a value
// is stored under; in practice values are pointers, compared by identity.
package registry
