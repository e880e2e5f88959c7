// Package digest builds the daily chat digest: day statistics, a
// narrative summary from the Gemini client with a deterministic
// fallback, and reaction rankings. It also tracks which chats receive
// the scheduled digest.
package digest

import (
	"sort"
	"sync"
)

// Registry is the set of chats the daily digest targets. It is seeded
// from the message ledger at startup and grows as group traffic
// arrives; it replaces ad-hoc global state with an explicit dependency.
type Registry struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
}

// NewRegistry creates an empty chat registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]struct{})}
}

// Seed adds every chat id, typically the ledger's distinct chats.
func (r *Registry) Seed(chatIDs []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range chatIDs {
		r.chats[id] = struct{}{}
	}
}

// Add registers one chat.
func (r *Registry) Add(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chatID] = struct{}{}
}

// Snapshot returns the registered chat ids in ascending order.
func (r *Registry) Snapshot() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.chats))
	for id := range r.chats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered chats.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chats)
}
