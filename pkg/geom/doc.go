// Package geom provides the vector, quaternion and ray primitives used by the
// lumber placement core. All functions are pure and work in millimeters in a
// right-handed frame with Y up.
package geom
