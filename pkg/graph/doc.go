// Package graph derives the connectivity graph of placed lumber from their
// connection records and validates a set of pieces before it is saved or
// rendered.
package graph
