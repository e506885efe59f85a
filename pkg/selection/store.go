package selection

import "sync"

// Observer receives the new snapshot after every state change
type Observer func(snapshot Context)

type registration struct {
	id uint64
	fn Observer
}

// Store holds the selected node and the selected row set of one workspace.
//
// Every mutation is applied and broadcast to observers before the call returns.
// Mutations are serialized, so observers always see them in invocation order.
// Observers must not call mutators on the same store.
type Store struct {
	// writeMu serializes apply+notify
	writeMu sync.Mutex

	// mu guards the fields below
	mu        sync.RWMutex
	node      *SelectedNode
	rows      []SelectedRow
	version   uint64
	observers []registration
	nextID    uint64
}

// NewStore creates an empty selection store
func NewStore() *Store {
	return &Store{}
}

// SetSelectedNode replaces the selected node. A nil node clears it.
func (s *Store) SetSelectedNode(node *SelectedNode) error {
	if node != nil && node.ID == "" {
		return ErrMissingID
	}

	var copied *SelectedNode
	if node != nil {
		n := *node
		copied = &n
	}

	s.mutate(func() {
		s.node = copied
	})
	return nil
}

// ToggleSelectedRow adds the row when its id is not selected, removes it otherwise.
func (s *Store) ToggleSelectedRow(row SelectedRow) error {
	if row.ID == "" {
		return ErrMissingID
	}

	s.mutate(func() {
		for i, selected := range s.rows {
			if selected.ID == row.ID {
				rows := make([]SelectedRow, 0, len(s.rows)-1)
				rows = append(rows, s.rows[:i]...)
				s.rows = append(rows, s.rows[i+1:]...)
				return
			}
		}
		rows := make([]SelectedRow, len(s.rows), len(s.rows)+1)
		copy(rows, s.rows)
		s.rows = append(rows, row)
	})
	return nil
}

// ClearSelections resets both the node and the rows with a single notification
func (s *Store) ClearSelections() {
	s.mutate(func() {
		s.node = nil
		s.rows = nil
	})
}

// Snapshot returns the current derived context
func (s *Store) Snapshot() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Version returns the number of mutations applied so far
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SnapshotVersion reads the context and the version it belongs to atomically
func (s *Store) SnapshotVersion() (Context, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.version
}

// WithSnapshot runs fn with the current context while no mutation can start,
// so whatever fn hands on is ordered before the next observer notification.
// fn must not call mutators on the same store.
func (s *Store) WithSnapshot(fn func(Context, uint64)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fn(s.SnapshotVersion())
}

// Subscribe registers an observer and returns the function that removes it.
// Calling the returned function more than once is a no-op.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, registration{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, reg := range s.observers {
				if reg.id == id {
					observers := make([]registration, 0, len(s.observers)-1)
					observers = append(observers, s.observers[:i]...)
					s.observers = append(observers, s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// ObserverCount returns how many observers are registered
func (s *Store) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

func (s *Store) mutate(apply func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	apply()
	s.version++
	snapshot := s.snapshotLocked()
	observers := s.observers
	s.mu.Unlock()

	for _, reg := range observers {
		reg.fn(snapshot)
	}
}

// snapshotLocked builds a context that shares no memory with the store.
// Each observer gets the same value, so observers must treat it as read-only.
func (s *Store) snapshotLocked() Context {
	ctx := Context{Rows: make([]SelectedRow, len(s.rows))}
	copy(ctx.Rows, s.rows)
	if s.node != nil {
		n := *s.node
		ctx.Node = &n
	}
	return ctx
}
