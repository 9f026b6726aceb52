// Package store keeps the placed lumber pieces, the selection set and the
// connection records between pieces.
package store

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/graph"
	"github.com/chazu/lumberyard/pkg/lumber"
)

// Patch is a shallow update; nil fields are left alone.
type Patch struct {
	Type        *lumber.Type         `json:"type,omitempty"`
	Position    *geom.Vec3           `json:"position,omitempty"`
	Length      *float64             `json:"length,omitempty"`
	Rotation    *geom.Quat           `json:"rotation,omitempty"`
	Connections *[]lumber.Connection `json:"connections,omitempty"`
}

func (p Patch) apply(l *lumber.Lumber) {
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	if p.Length != nil {
		l.Length = *p.Length
	}
	if p.Rotation != nil {
		l.Rotation = *p.Rotation
	}
	if p.Connections != nil {
		l.Connections = slices.Clone(*p.Connections)
	}
}

// PatchFrom captures the fields of l that p would overwrite, so that
// applying the result undoes p.
func PatchFrom(l lumber.Lumber, p Patch) Patch {
	var prev Patch
	if p.Type != nil {
		prev.Type = &l.Type
	}
	if p.Position != nil {
		prev.Position = &l.Position
	}
	if p.Length != nil {
		prev.Length = &l.Length
	}
	if p.Rotation != nil {
		prev.Rotation = &l.Rotation
	}
	if p.Connections != nil {
		c := slices.Clone(l.Connections)
		prev.Connections = &c
	}
	return prev
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs replaces the UUID generator.
func WithIDs(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// Store is the lumber data model. It is safe for concurrent use; change
// callbacks run after the lock is released.
type Store struct {
	mu       deadlock.RWMutex
	lumbers  map[string]lumber.Lumber
	selected map[string]struct{}
	subs     map[int]func()
	nextSub  int

	now   func() time.Time
	newID func() string
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		lumbers:  make(map[string]lumber.Lumber),
		selected: make(map[string]struct{}),
		subs:     make(map[int]func()),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to run after every change. The returned function
// removes it.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// mutate runs fn under the write lock and notifies subscribers if fn
// reports a change.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	var subs []func()
	if changed {
		subs = lo.Values(s.subs)
	}
	s.mu.Unlock()
	for _, f := range subs {
		f()
	}
	return changed
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

// AddLumber stores a piece running from start to end and returns its ID.
// Length is not validated here.
func (s *Store) AddLumber(t lumber.Type, start, end geom.Vec3) string {
	return s.Place(lumber.PlacementBetween(t, start, end))
}

// Place stores a finished placement and returns the new ID.
func (s *Store) Place(p lumber.Placement) string {
	var id string
	s.mutate(func() bool {
		id = s.newID()
		ts := s.stamp()
		s.lumbers[id] = lumber.Lumber{
			ID:          id,
			Type:        p.Type,
			Position:    p.Position,
			Length:      p.Length,
			Rotation:    p.Rotation.Normalize(),
			Connections: []lumber.Connection{},
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		return true
	})
	return id
}

// Commit stores p. It lets the store act as a placement committer directly.
func (s *Store) Commit(p lumber.Placement) (string, error) {
	return s.Place(p), nil
}

// UpdateLumber merges p into the piece and bumps UpdatedAt. Unknown IDs
// are ignored; the result reports whether the piece existed.
func (s *Store) UpdateLumber(id string, p Patch) bool {
	return s.mutate(func() bool {
		l, ok := s.lumbers[id]
		if !ok {
			return false
		}
		p.apply(&l)
		l.UpdatedAt = s.stamp()
		s.lumbers[id] = l
		return true
	})
}

// DeleteLumber removes the piece and drops it from the selection.
func (s *Store) DeleteLumber(id string) bool {
	return s.mutate(func() bool {
		if _, ok := s.lumbers[id]; !ok {
			return false
		}
		delete(s.lumbers, id)
		delete(s.selected, id)
		return true
	})
}

// RestoreLumber reinserts a piece exactly as given, replacing any piece
// with the same ID.
func (s *Store) RestoreLumber(l lumber.Lumber) {
	s.mutate(func() bool {
		s.lumbers[l.ID] = l.Clone()
		return true
	})
}

// Replace swaps the whole piece set and clears the selection.
func (s *Store) Replace(lumbers []lumber.Lumber) {
	s.mutate(func() bool {
		s.lumbers = make(map[string]lumber.Lumber, len(lumbers))
		for _, l := range lumbers {
			s.lumbers[l.ID] = l.Clone()
		}
		s.selected = make(map[string]struct{})
		return true
	})
}

// Get returns a copy of the piece.
func (s *Store) Get(id string) (lumber.Lumber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lumbers[id]
	if !ok {
		return lumber.Lumber{}, false
	}
	return l.Clone(), true
}

// All returns copies of every piece ordered by creation time, then ID.
func (s *Store) All() []lumber.Lumber {
	s.mu.RLock()
	out := lo.MapToSlice(s.lumbers, func(_ string, l lumber.Lumber) lumber.Lumber {
		return l.Clone()
	})
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b lumber.Lumber) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Len is the number of pieces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lumbers)
}

// Select adds id to the selection; without multi the selection is
// replaced. Unknown IDs are ignored.
func (s *Store) Select(id string, multi bool) {
	s.mutate(func() bool {
		if _, ok := s.lumbers[id]; !ok {
			return false
		}
		if !multi {
			s.selected = make(map[string]struct{})
		}
		s.selected[id] = struct{}{}
		return true
	})
}

// Deselect removes id from the selection.
func (s *Store) Deselect(id string) {
	s.mutate(func() bool {
		if _, ok := s.selected[id]; !ok {
			return false
		}
		delete(s.selected, id)
		return true
	})
}

// DeselectAll clears the selection.
func (s *Store) DeselectAll() {
	s.mutate(func() bool {
		if len(s.selected) == 0 {
			return false
		}
		s.selected = make(map[string]struct{})
		return true
	})
}

// Selected returns the selected IDs, sorted.
func (s *Store) Selected() []string {
	s.mu.RLock()
	ids := lo.Keys(s.selected)
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// AddConnection appends c to the piece's connections. Unknown IDs are
// ignored.
func (s *Store) AddConnection(id string, c lumber.Connection) bool {
	return s.mutate(func() bool {
		l, ok := s.lumbers[id]
		if !ok {
			return false
		}
		l.Connections = append(slices.Clone(l.Connections), c)
		l.UpdatedAt = s.stamp()
		s.lumbers[id] = l
		return true
	})
}

// RemoveConnection drops every connection from id to target.
func (s *Store) RemoveConnection(id, target string) bool {
	return s.mutate(func() bool {
		l, ok := s.lumbers[id]
		if !ok {
			return false
		}
		l.Connections = lo.Filter(l.Connections, func(c lumber.Connection, _ int) bool {
			return c.TargetLumberID != target
		})
		l.UpdatedAt = s.stamp()
		s.lumbers[id] = l
		return true
	})
}

// ConnectedLumbers returns the targets of id's own connection records.
func (s *Store) ConnectedLumbers(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lumbers[id]
	if !ok {
		return nil
	}
	return lo.Map(l.Connections, func(c lumber.Connection, _ int) string {
		return c.TargetLumberID
	})
}

// GetConnectedGroup returns every piece reachable from id through the
// connection records each piece holds, including id. Use Graph().Components
// for groups that ignore which side holds the record.
func (s *Store) GetConnectedGroup(id string) []string {
	return graph.Build(s.All()).ConnectedGroup(id)
}

// Graph builds the connectivity graph of the current pieces.
func (s *Store) Graph() *graph.Graph {
	return graph.Build(s.All())
}
