// Package project saves and loads lumber layouts. Files are JSON,
// zstd-compressed JSON or CBOR, picked by extension.
package project

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/store"
)

// Version is written into every saved project.
const Version = "1.0.0"

// DefaultName is used when a project is created without one.
const DefaultName = "Untitled Project"

var ErrUnknownFormat = errors.New("unknown project format")

//go:embed project.schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("project.schema.json", schemaSource)

// cborDocMode decodes CBOR documents into the same shape encoding/json
// produces, so they can go through the schema.
var cborDocMode, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
}.DecMode()

// Metadata describes the project itself. Times are Unix milliseconds.
type Metadata struct {
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Project is the saved form of a layout: every piece keyed by ID.
type Project struct {
	Version  string                   `json:"version"`
	Lumbers  map[string]lumber.Lumber `json:"lumbers"`
	Metadata Metadata                 `json:"metadata"`
}

// New returns an empty project stamped with the current time.
func New(name string) *Project {
	if name == "" {
		name = DefaultName
	}
	now := time.Now().UnixMilli()
	return &Project{
		Version:  Version,
		Lumbers:  map[string]lumber.Lumber{},
		Metadata: Metadata{Name: name, CreatedAt: now, UpdatedAt: now},
	}
}

// FromStore snapshots every piece in s.
func FromStore(s *store.Store, name string) *Project {
	p := New(name)
	for _, l := range s.All() {
		p.Lumbers[l.ID] = l
	}
	return p
}

// Pieces returns the lumbers ordered as a store would list them.
func (p *Project) Pieces() []lumber.Lumber {
	s := store.New()
	p.Apply(s)
	return s.All()
}

// Apply replaces the contents of s with the project's pieces.
func (p *Project) Apply(s *store.Store) {
	out := make([]lumber.Lumber, 0, len(p.Lumbers))
	for id, l := range p.Lumbers {
		if l.ID == "" {
			l.ID = id
		}
		out = append(out, l)
	}
	s.Replace(out)
}

// Format selects the file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatJSONZstd
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJSONZstd:
		return "json.zst"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFor picks the format from a file name.
func FormatFor(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".json.zst"):
		return FormatJSONZstd, nil
	case strings.HasSuffix(name, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(name, ".cbor"):
		return FormatCBOR, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// Encode writes p to w in format f.
func Encode(w io.Writer, p *Project, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case FormatJSONZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := json.NewEncoder(zw).Encode(p); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(p)
	}
	return ErrUnknownFormat
}

// Decode reads a project in format f. Every format is checked against the
// project schema first; CBOR is converted to JSON to get there. A version other than Version is logged and
// loaded anyway.
func Decode(r io.Reader, f Format) (*Project, error) {
	var p Project
	switch f {
	case FormatJSON:
		if err := decodeJSON(r, &p); err != nil {
			return nil, err
		}
	case FormatJSONZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if err := decodeJSON(zr, &p); err != nil {
			return nil, err
		}
	case FormatCBOR:
		var doc any
		if err := cborDocMode.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("cbor decode: %w", err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("cbor decode: %w", err)
		}
		if err := decodeJSON(bytes.NewReader(data), &p); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFormat
	}

	if p.Version != Version {
		log.Warn().Str("want", Version).Str("got", p.Version).Msg("project version mismatch")
	}
	if p.Lumbers == nil {
		p.Lumbers = map[string]lumber.Lumber{}
	}
	return &p, nil
}

func decodeJSON(r io.Reader, p *Project) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	return json.Unmarshal(data, p)
}

// Save writes p to path, choosing the format by extension. UpdatedAt is
// bumped first.
func Save(path string, p *Project) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	p.Metadata.UpdatedAt = time.Now().UnixMilli()

	var buf bytes.Buffer
	if err := Encode(&buf, p, f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Debug().Str("path", path).Stringer("format", f).Int("lumbers", len(p.Lumbers)).Msg("project saved")
	return nil
}

// Load reads a project from path, choosing the format by extension.
func Load(path string) (*Project, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	p, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}
