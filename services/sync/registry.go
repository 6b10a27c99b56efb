package sync

import (
	"context"
	"sync"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

// Handle tracks one in-flight sync: its cancellation and its progress
// stream. A Go context.CancelFunc replaces the original's cancellation
// token; the channel replaces its async progress sender.
type Handle struct {
	ProfileID string
	ctx       context.Context
	cancel    context.CancelFunc
	progress  chan models.SyncProgress
}

// NewHandle builds a Handle bound to parent, returning it alongside the
// progress channel the caller should drain.
func NewHandle(parent context.Context, profileID string) (*Handle, <-chan models.SyncProgress) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan models.SyncProgress, 8)
	return &Handle{ProfileID: profileID, ctx: ctx, cancel: cancel, progress: ch}, ch
}

// Ctx returns the handle's own context: the one Cancel actually cancels.
// Callers driving a sync through this handle (FullSync, IncrementalSync,
// and anything that checks cancellation mid-sync) must thread this
// context through, not whatever context they received the handle from —
// otherwise Cancel/Registry.Cancel have no way to stop the sync.
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// IsCancelled reports whether Cancel has been called.
func (h *Handle) IsCancelled() bool {
	return h.ctx.Err() != nil
}

// Cancel triggers cooperative cancellation of the sync.
func (h *Handle) Cancel() {
	h.cancel()
}

// Registry tracks the active-sync set: at most one sync per profile at a
// time. Registration failure (ErrSyncActive) is how concurrent sync
// requests for the same profile are rejected.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Handle
}

// NewRegistry constructs an empty active-sync registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*Handle)}
}

// Register adds profileID to the active set, failing with ErrSyncActive if
// a sync for that profile is already registered.
func (r *Registry) Register(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.active[h.ProfileID]; exists {
		return apperr.Wrap(apperr.ErrSyncActive, "sync already in progress for profile %s", h.ProfileID)
	}
	r.active[h.ProfileID] = h
	return nil
}

// Unregister removes profileID from the active set. A no-op if absent.
func (r *Registry) Unregister(profileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, profileID)
}

// IsActive reports whether a sync is currently registered for profileID.
func (r *Registry) IsActive(profileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.active[profileID]
	return exists
}

// Cancel triggers cancellation of the active sync for profileID, failing
// with ErrNotFound if none is registered.
func (r *Registry) Cancel(profileID string) error {
	r.mu.Lock()
	h, exists := r.active[profileID]
	r.mu.Unlock()
	if !exists {
		return apperr.Wrap(apperr.ErrNotFound, "no active sync for profile %s", profileID)
	}
	h.Cancel()
	return nil
}

// ActiveCount returns the number of profiles with a registered sync.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
