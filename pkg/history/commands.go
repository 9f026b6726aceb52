package history

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/store"
)

// ErrNotFound is returned when an edit names a piece the store lacks.
var ErrNotFound = errors.New("lumber not found")

// addCommand places one piece. Undo keeps a backup so Redo restores the
// same ID.
type addCommand struct {
	store     *store.Store
	placement lumber.Placement
	id        string
	backup    *lumber.Lumber
}

func (c *addCommand) Do() error {
	c.id = c.store.Place(c.placement)
	return nil
}

func (c *addCommand) Undo() {
	if l, ok := c.store.Get(c.id); ok {
		c.backup = &l
	}
	c.store.DeleteLumber(c.id)
}

func (c *addCommand) Redo() {
	if c.backup != nil {
		c.store.RestoreLumber(*c.backup)
	}
}

func (c *addCommand) Description() string {
	return fmt.Sprintf("Add Lumber (%s, %dmm)", c.placement.Type, int(math.Round(c.placement.Length)))
}

// deleteCommand removes several pieces at once.
type deleteCommand struct {
	store  *store.Store
	ids    []string
	backup []lumber.Lumber
}

func (c *deleteCommand) Do() error {
	c.backup = c.backup[:0]
	for _, id := range c.ids {
		if l, ok := c.store.Get(id); ok {
			c.backup = append(c.backup, l)
		}
	}
	if len(c.backup) == 0 {
		return ErrNotFound
	}
	for _, l := range c.backup {
		c.store.DeleteLumber(l.ID)
	}
	return nil
}

func (c *deleteCommand) Undo() {
	for _, l := range c.backup {
		c.store.RestoreLumber(l)
	}
}

func (c *deleteCommand) Redo() {
	for _, l := range c.backup {
		c.store.DeleteLumber(l.ID)
	}
}

func (c *deleteCommand) Description() string {
	if len(c.backup) == 1 {
		return "Delete Lumber (1 item)"
	}
	return fmt.Sprintf("Delete Lumber (%d items)", len(c.backup))
}

// updateCommand applies a patch and remembers the fields it replaced.
type updateCommand struct {
	store *store.Store
	id    string
	next  store.Patch
	prev  store.Patch
}

func (c *updateCommand) Do() error {
	l, ok := c.store.Get(c.id)
	if !ok {
		return fmt.Errorf("update %s: %w", c.id, ErrNotFound)
	}
	c.prev = store.PatchFrom(l, c.next)
	c.store.UpdateLumber(c.id, c.next)
	return nil
}

func (c *updateCommand) Undo() { c.store.UpdateLumber(c.id, c.prev) }
func (c *updateCommand) Redo() { c.store.UpdateLumber(c.id, c.next) }

func (c *updateCommand) Description() string { return "Update Lumber" }

// Editor routes edits through the undo log.
type Editor struct {
	Store *store.Store
	Log   *Log
}

// NewEditor wraps s with a fresh log.
func NewEditor(s *store.Store) *Editor {
	return &Editor{Store: s, Log: NewLog()}
}

// Commit places p as an undoable edit. It satisfies placement.Committer.
func (e *Editor) Commit(p lumber.Placement) (string, error) {
	c := &addCommand{store: e.Store, placement: p}
	if err := e.Log.Run(c); err != nil {
		return "", err
	}
	log.Debug().Str("id", c.id).Msg(c.Description())
	return c.id, nil
}

// AddLumber places a piece between start and end.
func (e *Editor) AddLumber(t lumber.Type, start, end geom.Vec3) string {
	id, _ := e.Commit(lumber.PlacementBetween(t, start, end))
	return id
}

// DeleteLumbers removes the pieces that exist among ids as one edit.
func (e *Editor) DeleteLumbers(ids []string) error {
	c := &deleteCommand{store: e.Store, ids: ids}
	if err := e.Log.Run(c); err != nil {
		return err
	}
	log.Debug().Int("count", len(c.backup)).Msg(c.Description())
	return nil
}

// DeleteSelected removes the current selection.
func (e *Editor) DeleteSelected() error {
	return e.DeleteLumbers(e.Store.Selected())
}

// UpdateLumber patches a piece as an undoable edit.
func (e *Editor) UpdateLumber(id string, next store.Patch) error {
	return e.Log.Run(&updateCommand{store: e.Store, id: id, next: next})
}

func (e *Editor) Undo() bool { return e.Log.Undo() }
func (e *Editor) Redo() bool { return e.Log.Redo() }
