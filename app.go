package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bep/debounce"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/lumberyard/pkg/contact"
	"github.com/chazu/lumberyard/pkg/engine"
	"github.com/chazu/lumberyard/pkg/graph"
	"github.com/chazu/lumberyard/pkg/history"
	"github.com/chazu/lumberyard/pkg/kernel"
	"github.com/chazu/lumberyard/pkg/kernel/sdfx"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/placement"
	"github.com/chazu/lumberyard/pkg/project"
	"github.com/chazu/lumberyard/pkg/settings"
	"github.com/chazu/lumberyard/pkg/store"
	"github.com/chazu/lumberyard/pkg/tessellate"
	"github.com/chazu/lumberyard/pkg/viewport"
)

// EventLumberChanged is emitted to the frontend after every store change.
const EventLumberChanged = "lumber:changed"

// outlineOffset lifts face highlights off the surface, in millimeters.
const outlineOffset = 0.5

// colorPalette is a default palette used to assign distinct colors to pieces.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
//
// Wails calls bindings from several goroutines, so everything touching the
// placement controller or the camera holds mu.
type App struct {
	ctx context.Context

	mu       deadlock.Mutex
	settings *settings.Settings
	store    *store.Store
	editor   *history.Editor
	ctrl     *placement.Controller
	engine   *engine.Engine
	kernel   kernel.Kernel
	camera   viewport.Camera
	name     string

	autosave func(func())
}

// Option configures an App.
type Option func(*App)

// WithSettings replaces the default configuration.
func WithSettings(cfg settings.Config) Option {
	return func(a *App) { a.settings = settings.New(cfg) }
}

// WithKernel replaces the sdfx kernel used for meshes.
func WithKernel(k kernel.Kernel) Option {
	return func(a *App) { a.kernel = k }
}

// WithStore replaces the piece store.
func WithStore(s *store.Store) Option {
	return func(a *App) { a.store = s }
}

// NewApp creates a new App with an empty store, the sdfx kernel and the
// default settings.
func NewApp(opts ...Option) *App {
	a := &App{
		settings: settings.New(settings.Default()),
		engine:   engine.NewEngine(),
		kernel:   sdfx.New(),
		camera:   viewport.DefaultCamera(),
		name:     project.DefaultName,
	}
	for _, o := range opts {
		o(a)
	}
	if a.store == nil {
		a.store = store.New()
	}
	a.editor = history.NewEditor(a.store)
	a.ctrl = placement.New(a.store, a.editor, a.settings)

	cfg := a.settings.Config()
	if cfg.AutosavePath != "" && cfg.AutosaveDelay > 0 {
		a.autosave = debounce.New(cfg.AutosaveDelay)
	}
	a.store.Subscribe(a.changed)
	return a
}

// startup is called by Wails on app startup. The context is saved
// so we can emit runtime events later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// changed runs after every store mutation. It must not take mu: mutations
// triggered from a binding already hold it.
func (a *App) changed() {
	if a.ctx != nil {
		wailsruntime.EventsEmit(a.ctx, EventLumberChanged, a.store.Len())
	}
	if a.autosave != nil {
		a.autosave(a.saveAutosave)
	}
}

func (a *App) saveAutosave() {
	path := a.settings.Config().AutosavePath
	a.mu.Lock()
	name := a.name
	a.mu.Unlock()
	if err := project.Save(path, project.FromStore(a.store, name)); err != nil {
		log.Error().Err(err).Str("path", path).Msg("autosave failed")
	}
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	LumberID string    `json:"lumberId"`
	Selected bool      `json:"selected"`
	Color    string    `json:"color"`
}

// FaceData is a face of a piece plus the line loop that highlights it.
type FaceData struct {
	lumber.Face
	Outline []float32 `json:"outline"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// ClickResult reports the placement state after a click and the ID of a
// piece committed by it, if any.
type ClickResult struct {
	Placement placement.Snapshot `json:"placement"`
	PlacedID  string             `json:"placedId,omitempty"`
}

// SetCamera replaces the camera used to turn pointer positions into rays.
func (a *App) SetCamera(cam viewport.Camera) {
	a.mu.Lock()
	a.camera = cam
	a.mu.Unlock()
}

// BeginPlacement starts placing a piece of the named type ("1x4", "2x4",
// "rafter").
func (a *App) BeginPlacement(kind string) (placement.Snapshot, error) {
	t, err := lumber.ParseType(kind)
	if err != nil {
		return placement.Snapshot{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ctrl.Begin(t); err != nil {
		return placement.Snapshot{}, err
	}
	return a.ctrl.Snapshot(), nil
}

// PointerMove updates the preview for the cursor at pixel (x, y) of a
// width×height canvas.
func (a *App) PointerMove(x, y float64, width, height int) (placement.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, err := viewport.RayFromScreen(x, y, width, height, a.camera)
	if err != nil {
		return placement.Snapshot{}, err
	}
	a.ctrl.Move(r)
	return a.ctrl.Snapshot(), nil
}

// Click handles a click at pixel (x, y). Outside placement it selects the
// piece under the cursor; shift adds to the selection.
func (a *App) Click(x, y float64, width, height int, shift bool) (ClickResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, err := viewport.RayFromScreen(x, y, width, height, a.camera)
	if err != nil {
		return ClickResult{}, err
	}
	id, err := a.ctrl.Click(r, placement.Modifiers{Shift: shift})
	res := ClickResult{Placement: a.ctrl.Snapshot(), PlacedID: id}
	if errors.Is(err, placement.ErrTooShort) {
		log.Debug().Msg("ignoring click: piece too short")
		return res, nil
	}
	return res, err
}

// Escape cancels any placement in progress, or clears the selection when
// nothing is being placed.
func (a *App) Escape() placement.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, idle := a.ctrl.Mode().(placement.Idle); idle {
		a.store.DeselectAll()
	}
	a.ctrl.Cancel()
	return a.ctrl.Snapshot()
}

// Placement returns the current preview state.
func (a *App) Placement() placement.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctrl.Snapshot()
}

// Lumbers returns every placed piece.
func (a *App) Lumbers() []lumber.Lumber {
	return a.store.All()
}

// Selected returns the selected piece IDs.
func (a *App) Selected() []string {
	return a.store.Selected()
}

// Faces returns the six faces of a piece with their highlight outlines.
func (a *App) Faces(id string) ([]FaceData, error) {
	l, ok := a.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("lumber %s: %w", id, history.ErrNotFound)
	}
	faces := lumber.Faces(l)
	out := make([]FaceData, 0, len(faces))
	for _, f := range faces {
		out = append(out, FaceData{Face: f, Outline: tessellate.FaceOutline(f, outlineOffset)})
	}
	return out, nil
}

// Meshes tessellates every piece for display.
func (a *App) Meshes() ([]MeshData, error) {
	meshes, err := tessellate.Tessellate(a.store.All(), a.kernel)
	if err != nil {
		return nil, err
	}
	return a.meshData(meshes), nil
}

func (a *App) meshData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			LumberID: m.LumberID,
			Selected: a.store.IsSelected(m.LumberID),
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

// DeleteSelected removes the selected pieces as one undoable edit. It
// returns the number of pieces left.
func (a *App) DeleteSelected() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editor.DeleteSelected(); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return a.store.Len(), nil
		}
		return a.store.Len(), err
	}
	return a.store.Len(), nil
}

// Undo reverts the last edit and reports whether there was one.
func (a *App) Undo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editor.Undo()
}

// Redo reapplies the last undone edit and reports whether there was one.
func (a *App) Redo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editor.Redo()
}

// HistoryData lists the edit descriptions, oldest first. Current is the
// index of the last applied edit, or -1.
type HistoryData struct {
	Entries []string `json:"entries"`
	Current int      `json:"current"`
}

// History returns the undo log.
func (a *App) History() HistoryData {
	entries, cur := a.editor.Log.Descriptions()
	return HistoryData{Entries: entries, Current: cur}
}

// CycleGridSize steps the grid spacing and returns the new value.
func (a *App) CycleGridSize() float64 {
	g := a.settings.CycleGridSize()
	log.Debug().Float64("grid", g).Msg("grid size")
	return g
}

// SetSnapEnabled toggles grid snapping.
func (a *App) SetSnapEnabled(on bool) {
	a.settings.SetSnapEnabled(on)
}

// Settings returns the live configuration.
func (a *App) Settings() settings.Config {
	return a.settings.Config()
}

// DetectConnections finds touching pieces and records a screw connection
// for each new pair. It returns every contact found.
func (a *App) DetectConnections() []contact.Contact {
	threshold := a.settings.ContactThreshold()
	a.mu.Lock()
	defer a.mu.Unlock()
	n := contact.Connect(a.store, threshold, lumber.ConnectionScrew)
	contacts := contact.Detect(a.store.All(), threshold)
	log.Info().Int("contacts", len(contacts)).Int("added", n).Msg("detected connections")
	return contacts
}

// Validate checks the current pieces.
func (a *App) Validate() graph.ValidationResult {
	return graph.ValidateAll(a.store.All(), a.settings.Config().WorkAreaSize)
}

// SaveProject writes the current pieces to path. The encoding follows the
// file extension.
func (a *App) SaveProject(path string) error {
	if res := a.Validate(); !res.OK() {
		return fmt.Errorf("project has %d validation errors: %w", len(res.Errors), res.Errors[0])
	}
	a.mu.Lock()
	if a.name == project.DefaultName {
		a.name, _, _ = strings.Cut(filepath.Base(path), ".")
	}
	p := project.FromStore(a.store, a.name)
	a.mu.Unlock()
	return project.Save(path, p)
}

// LoadProject replaces the scene with the project at path. Placement is
// cancelled and the undo history cleared.
func (a *App) LoadProject(path string) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.Cancel()
	a.name = p.Metadata.Name
	p.Apply(a.store)
	a.editor.Log.Clear()
	return nil
}

// Evaluate takes Lisp source, replaces the scene with the pieces it builds
// and returns their meshes. On errors the scene is left alone.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Error().Err(err).Msg("evaluate fatal error")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	pieces := s.All()
	for _, v := range graph.ValidateAll(pieces, a.settings.Config().WorkAreaSize).Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: v.Error()})
	}

	meshes, err := tessellate.Tessellate(pieces, a.kernel)
	if err != nil {
		log.Error().Err(err).Msg("tessellate failed")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	a.mu.Lock()
	a.ctrl.Cancel()
	a.store.Replace(pieces)
	a.editor.Log.Clear()
	a.mu.Unlock()

	result.Meshes = a.meshData(meshes)
	return result
}
