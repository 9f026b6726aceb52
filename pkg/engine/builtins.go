package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lumberyard/pkg/contact"
	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/placement"
	"github.com/chazu/lumberyard/pkg/snap"
	"github.com/chazu/lumberyard/pkg/store"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites layout scripts into something zygomys accepts:
//
//  1. Keywords become tagged strings: :from -> "__kw_from", :2x4 -> "__kw_2x4".
//     Keywords are never bound as globals, so they cannot shadow variables.
//
//  2. Kebab-case identifiers become snake case: snap-grid -> snap_grid.
//     zygomys reads a bare hyphen as subtraction.
//
//  3. ; comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Profile names such as :2x4 start with a digit.
			if isLetter(b[i+1]) || isDigit(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpLumber refers to a piece already placed in the script's store.
type sexpLumber struct {
	id string
	t  lumber.Type
}

func (l *sexpLumber) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(lumber %s %s)", l.t, short(l.id))
}
func (l *sexpLumber) Type() *zygo.RegisteredType { return nil }

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix marks keywords rewritten by preprocessSource.
const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword pairs from positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a keyword (:2x4) or a plain string ("2x4").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toLumber(s zygo.Sexp) (*sexpLumber, error) {
	if l, ok := s.(*sexpLumber); ok {
		return l, nil
	}
	return nil, fmt.Errorf("expected lumber, got %T (%s)", s, s.SexpString(nil))
}

func toLumberType(s zygo.Sexp) (lumber.Type, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	return lumber.ParseType(name)
}

func toConnectionType(s zygo.Sexp) (lumber.ConnectionType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	return lumber.ParseConnectionType(name)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout builtins. Pieces and connections
// go into s as the script runs. Source must already be preprocessed.
func registerBuiltins(env *zygo.Zlisp, s *store.Store) {

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (lumber :type :2x4 :from (vec3 0 0 0) :to (vec3 0 1200 0))
	// -----------------------------------------------------------------------
	env.AddFunction("lumber", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		t := lumber.TwoByFour
		if v, ok := pa.kw["type"]; ok {
			parsed, err := toLumberType(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("lumber: type: %w", err)
			}
			t = parsed
		}

		from, ok := pa.kw["from"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("lumber requires :from")
		}
		start, err := toVec3(from)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("lumber: from: %w", err)
		}
		to, ok := pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("lumber requires :to")
		}
		end, err := toVec3(to)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("lumber: to: %w", err)
		}

		if geom.Distance(start, end) < placement.MinLength {
			return zygo.SexpNull, fmt.Errorf("lumber: %w", placement.ErrTooShort)
		}
		id := s.AddLumber(t, start, end)
		return &sexpLumber{id: id, t: t}, nil
	})

	// -----------------------------------------------------------------------
	// (lumber-start piece) / (lumber-end piece)
	// -----------------------------------------------------------------------
	endpoint := func(fn string, pick func(lumber.Lumber) geom.Vec3) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a lumber argument", fn)
			}
			ref, err := toLumber(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			l, ok := s.Get(ref.id)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: lumber %s no longer exists", fn, short(ref.id))
			}
			return &sexpVec3{vec: pick(l)}, nil
		}
	}
	env.AddFunction("lumber_start", endpoint("lumber-start", func(l lumber.Lumber) geom.Vec3 { return l.Position }))
	env.AddFunction("lumber_end", endpoint("lumber-end", lumber.Lumber.End))

	// -----------------------------------------------------------------------
	// (connect a b :kind :screw :at (vec3 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("connect requires two lumber arguments, got %d", len(pa.positional))
		}
		a, err := toLumber(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		b, err := toLumber(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		if a.id == b.id {
			return zygo.SexpNull, fmt.Errorf("connect: a piece cannot connect to itself")
		}

		kind := lumber.ConnectionScrew
		if v, ok := pa.kw["kind"]; ok {
			if kind, err = toConnectionType(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("connect: kind: %w", err)
			}
		}
		var at geom.Vec3
		if v, ok := pa.kw["at"]; ok {
			if at, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("connect: at: %w", err)
			}
		}

		s.AddConnection(a.id, lumber.Connection{TargetLumberID: b.id, ConnectionType: kind, ContactPoint: at})
		s.AddConnection(b.id, lumber.Connection{TargetLumberID: a.id, ConnectionType: kind, ContactPoint: at})
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (auto-connect 1 :kind :bracket) links every touching pair.
	// -----------------------------------------------------------------------
	env.AddFunction("auto_connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		threshold := 1.0
		if len(pa.positional) > 0 {
			f, err := toFloat64(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("auto-connect: threshold: %w", err)
			}
			threshold = f
		}
		kind := lumber.ConnectionScrew
		if v, ok := pa.kw["kind"]; ok {
			var err error
			if kind, err = toConnectionType(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("auto-connect: kind: %w", err)
			}
		}
		n := contact.Connect(s, threshold, kind)
		return &zygo.SexpInt{Val: int64(n)}, nil
	})

	// -----------------------------------------------------------------------
	// (snap-grid (vec3 ...) 100)
	// -----------------------------------------------------------------------
	env.AddFunction("snap_grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("snap-grid requires a vec3 and a grid size")
		}
		v, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("snap-grid: %w", err)
		}
		g, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("snap-grid: size: %w", err)
		}
		return &sexpVec3{vec: snap.ToGrid(v, g)}, nil
	})
}
