package graph

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/lumberyard/pkg/lumber"
)

// ValidationSeverity indicates whether a finding blocks saving or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks saving
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// MarshalText encodes the severity name.
func (s ValidationSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	LumberID string             `json:"lumberId,omitempty"` // empty for set-level findings
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

func (e ValidationError) Error() string {
	if e.LumberID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] lumber %s: %s", e.Severity, short(e.LumberID), e.Message)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ValidationResult splits findings by severity.
type ValidationResult struct {
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// rotationTolerance is how far |q| may stray from 1.
const rotationTolerance = 1e-3

// Validate runs the structural checks over a set of pieces: per-piece
// fields, then connection references. Output is ordered by lumber ID. It
// never mutates its input.
func Validate(lumbers []lumber.Lumber) []ValidationError {
	sorted := slices.Clone(lumbers)
	slices.SortFunc(sorted, func(a, b lumber.Lumber) int {
		return cmp.Compare(a.ID, b.ID)
	})

	var errs []ValidationError
	errs = append(errs, validateIDs(sorted)...)
	errs = append(errs, validatePieces(sorted)...)
	errs = append(errs, validateConnections(sorted)...)
	return errs
}

// ValidateAll runs Validate plus the work-area check and separates errors
// from warnings. A non-positive workArea skips the extent check.
func ValidateAll(lumbers []lumber.Lumber, workArea float64) ValidationResult {
	all := Validate(lumbers)
	all = append(all, validateWorkArea(lumbers, workArea)...)

	var result ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// validateIDs checks for empty and repeated IDs.
func validateIDs(lumbers []lumber.Lumber) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(lumbers))
	for _, l := range lumbers {
		if l.ID == "" {
			errs = append(errs, ValidationError{
				Message:  "lumber has an empty id",
				Severity: SeverityError,
			})
			continue
		}
		if seen[l.ID] {
			errs = append(errs, ValidationError{
				LumberID: l.ID,
				Message:  "duplicate lumber id",
				Severity: SeverityError,
			})
		}
		seen[l.ID] = true
	}
	return errs
}

// validatePieces checks type, length and rotation of every piece.
func validatePieces(lumbers []lumber.Lumber) []ValidationError {
	var errs []ValidationError
	for _, l := range lumbers {
		if !l.Type.Valid() {
			errs = append(errs, ValidationError{
				LumberID: l.ID,
				Message:  fmt.Sprintf("unknown lumber type %q", l.Type),
				Severity: SeverityError,
			})
		}
		if !(l.Length > 0) {
			errs = append(errs, ValidationError{
				LumberID: l.ID,
				Message:  fmt.Sprintf("length is %.4f, must be positive", l.Length),
				Severity: SeverityError,
			})
		}
		if n := l.Rotation.Norm(); math.IsNaN(n) || math.Abs(n-1) > rotationTolerance {
			errs = append(errs, ValidationError{
				LumberID: l.ID,
				Message:  fmt.Sprintf("rotation %v is not a unit quaternion (|q| = %.4f)", l.Rotation, n),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateConnections checks that connection targets exist, are not the
// piece itself, appear once, and are mirrored on the target.
func validateConnections(lumbers []lumber.Lumber) []ValidationError {
	byID := make(map[string]lumber.Lumber, len(lumbers))
	for _, l := range lumbers {
		byID[l.ID] = l
	}

	var errs []ValidationError
	for _, l := range lumbers {
		seen := make(map[string]bool, len(l.Connections))
		for _, c := range l.Connections {
			target := c.TargetLumberID
			switch {
			case target == l.ID:
				errs = append(errs, ValidationError{
					LumberID: l.ID,
					Message:  "connection targets the piece itself",
					Severity: SeverityError,
				})
				continue
			case seen[target]:
				errs = append(errs, ValidationError{
					LumberID: l.ID,
					Message:  fmt.Sprintf("duplicate connection to %s", short(target)),
					Severity: SeverityError,
				})
				continue
			}
			seen[target] = true

			other, ok := byID[target]
			if !ok {
				errs = append(errs, ValidationError{
					LumberID: l.ID,
					Message:  fmt.Sprintf("connection target %s does not exist", short(target)),
					Severity: SeverityError,
				})
				continue
			}
			if !other.ConnectedTo(l.ID) {
				errs = append(errs, ValidationError{
					LumberID: l.ID,
					Message:  fmt.Sprintf("connection to %s is not mirrored on the target", short(target)),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}

// validateWorkArea warns about pieces reaching outside the square work
// area of side workArea centered on the origin.
func validateWorkArea(lumbers []lumber.Lumber, workArea float64) []ValidationError {
	if workArea <= 0 {
		return nil
	}
	half := workArea / 2
	var errs []ValidationError
	for _, l := range lumbers {
		if !l.Type.Valid() || !(l.Length > 0) {
			continue
		}
		b := l.Bounds()
		if b.Min.X < -half || b.Max.X > half || b.Min.Z < -half || b.Max.Z > half {
			errs = append(errs, ValidationError{
				LumberID: l.ID,
				Message:  fmt.Sprintf("piece extends outside the %.0fmm work area", workArea),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
