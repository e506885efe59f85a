package memory

import (
	"time"

	"workspace-context-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type WorkspaceRepository struct {
	cache *cache.Cache
}

// NewWorkspaceRepository keeps workspaces for ttl after their last save and
// purges expired ones every cleanupInterval. Evicted workspaces are closed and
// then handed to each onEvicted hook (expiry and Delete alike).
func NewWorkspaceRepository(ttl, cleanupInterval time.Duration, onEvicted ...func(*store.Workspace)) *WorkspaceRepository {
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		ws, ok := v.(*store.Workspace)
		if !ok {
			return
		}
		ws.Close()
		for _, fn := range onEvicted {
			fn(ws)
		}
	})
	return &WorkspaceRepository{
		cache: c,
	}
}

// Save stores the workspace and refreshes its expiration
func (r *WorkspaceRepository) Save(ws *store.Workspace) {
	r.cache.Set(ws.ID, ws, cache.DefaultExpiration)
}

func (r *WorkspaceRepository) Get(id string) (*store.Workspace, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*store.Workspace), true
	}
	return nil, false
}

// Delete removes and closes the workspace
func (r *WorkspaceRepository) Delete(id string) {
	r.cache.Delete(id)
}

func (r *WorkspaceRepository) Count() int {
	return r.cache.ItemCount()
}
