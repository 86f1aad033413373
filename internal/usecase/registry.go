package usecase

import (
	"sync"

	"TradeDesk/internal/domain/models"
)

// Registry is the session-scoped, in-memory set of known models.
// Entries are only ever replaced as whole values; callers receive copies.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]models.Model
	order []string

	// gen advances on every removal; tombstones remember when each id was removed
	// so a listing fetched before the removal cannot bring it back.
	gen        uint64
	tombstones map[string]uint64

	// seq numbers refreshes in start order. inflight maps an unfinished refresh to
	// the gen it started at; applied is the newest refresh whose listing was kept.
	seq      uint64
	applied  uint64
	inflight map[uint64]uint64
}

// RefreshTicket identifies one listing fetch between BeginRefresh and Replace.
type RefreshTicket struct {
	seq uint64
	gen uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]models.Model),
		tombstones: make(map[string]uint64),
		inflight:   make(map[uint64]uint64),
	}
}

func (r *Registry) Snapshot() []models.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Model, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneModel(r.byID[id]))
	}
	return out
}

func (r *Registry) Get(id string) (models.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return models.Model{}, false
	}
	return cloneModel(m), true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Put inserts or replaces a model. An id removed during this session is refused.
func (r *Registry) Put(m models.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.tombstones[m.ID]; dead {
		return models.NotFoundError(m.ID)
	}
	if _, ok := r.byID[m.ID]; !ok {
		r.order = append(r.order, m.ID)
	}
	r.byID[m.ID] = cloneModel(m)
	return nil
}

// Update replaces the entry for id with fn(current). fn runs under the write lock
// and must not block; returning false leaves the entry untouched.
func (r *Registry) Update(id string, fn func(models.Model) (models.Model, bool)) (models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return models.Model{}, models.NotFoundError(id)
	}
	next, apply := fn(cloneModel(cur))
	if !apply {
		return cloneModel(cur), nil
	}
	next.ID = id
	r.byID[id] = cloneModel(next)
	return cloneModel(next), nil
}

// Remove deletes id and tombstones it. It reports whether the id was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.tombstones[id] = r.gen
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// BeginRefresh marks the start of a listing fetch. The ticket must be handed
// back through Replace or AbortRefresh.
func (r *Registry) BeginRefresh() RefreshTicket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t := RefreshTicket{seq: r.seq, gen: r.gen}
	r.inflight[t.seq] = t.gen
	return t
}

// AbortRefresh releases a ticket whose fetch failed.
func (r *Registry) AbortRefresh(t RefreshTicket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, t.seq)
	r.pruneLocked()
}

// Replace swaps the whole collection for the listing fetched under t and reports
// whether it was applied. Ids removed after t began are dropped from the listing.
// A listing from a refresh that started before the last applied one is discarded.
func (r *Registry) Replace(list []models.Model, t RefreshTicket) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, t.seq)
	defer r.pruneLocked()

	if t.seq < r.applied {
		return len(r.order), false
	}

	byID := make(map[string]models.Model, len(list))
	order := make([]string, 0, len(list))
	for _, m := range list {
		if at, dead := r.tombstones[m.ID]; dead && at > t.gen {
			continue
		}
		if _, dup := byID[m.ID]; !dup {
			order = append(order, m.ID)
		}
		byID[m.ID] = cloneModel(m)
	}
	r.byID = byID
	r.order = order
	r.applied = t.seq
	return len(order), true
}

// pruneLocked forgets tombstones no unfinished refresh can still need.
func (r *Registry) pruneLocked() {
	floor := r.gen
	for _, gen := range r.inflight {
		if gen < floor {
			floor = gen
		}
	}
	for id, at := range r.tombstones {
		if at <= floor {
			delete(r.tombstones, id)
		}
	}
}

func cloneModel(m models.Model) models.Model {
	if m.Accuracy != nil {
		acc := *m.Accuracy
		m.Accuracy = &acc
	}
	return m
}
