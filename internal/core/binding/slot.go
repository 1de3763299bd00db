// Package binding declares how exposed parameters and operations reach their
// backing storage. Bindings are plain data built from a manifest; nothing is
// discovered at runtime.
package binding

import (
	"github.com/ocfkit/ocf/internal/core/value"
)

type (
	// Getter reads the current value of a storage location.
	Getter func() value.Value
	// Setter writes a storage location.
	Setter func(value.Value)
)

// Slot is an accessor pair bound to one storage location.
type Slot struct {
	Get Getter
	Set Setter
}

// Valid reports whether both accessors are bound.
func (s Slot) Valid() bool {
	return s.Get != nil && s.Set != nil
}

// Cell is an in-memory storage location for a single value. Cells are not
// safe for concurrent use; they live on the tick goroutine.
type Cell struct {
	v value.Value
}

// NewCell creates a cell holding initial.
func NewCell(initial value.Value) *Cell {
	return &Cell{v: initial}
}

func (c *Cell) Get() value.Value { return c.v }

// Set stores v coerced to the kind the cell was created with.
func (c *Cell) Set(v value.Value) {
	c.v = value.Coerce(v, c.v.Kind())
}

// Slot exposes the cell as an accessor pair.
func (c *Cell) Slot() Slot {
	return Slot{Get: c.Get, Set: c.Set}
}

// Field binds a Go variable through a pair of conversions.
func Field[T any](p *T, to func(T) value.Value, from func(value.Value) T) Slot {
	return Slot{
		Get: func() value.Value { return to(*p) },
		Set: func(v value.Value) { *p = from(v) },
	}
}

func FloatField(p *float64) Slot {
	return Field(p, value.Float, value.Value.Float)
}

func ColorField(p *value.RGBA) Slot {
	return Field(p, func(c value.RGBA) value.Value { return value.Color(c.R, c.G, c.B, c.A) }, value.Value.RGBA)
}
