// Package pointcloud recenters point clouds so that their axis-aligned bounding box is centered
// on the origin.
//
// The core works on Positions, a columnar in-memory view of the x, y and z coordinates, and never
// modifies its input. RecenterFile wraps it with reading and writing PLY and LAS files.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Positions holds point coordinates column-wise: point i is (X[i], Y[i], Z[i]).
type Positions struct {
	X, Y, Z []float64
}

// NewPositionsFromVectors builds Positions from a slice of points.
func NewPositionsFromVectors(points []r3.Vector) Positions {
	p := Positions{
		X: make([]float64, len(points)),
		Y: make([]float64, len(points)),
		Z: make([]float64, len(points)),
	}
	for i, pt := range points {
		p.X[i], p.Y[i], p.Z[i] = pt.X, pt.Y, pt.Z
	}
	return p
}

// Len returns the number of points.
func (p Positions) Len() int {
	return len(p.X)
}

// At returns point i.
func (p Positions) At(i int) r3.Vector {
	return r3.Vector{X: p.X[i], Y: p.Y[i], Z: p.Z[i]}
}

// Vectors returns the points as a slice of vectors.
func (p Positions) Vectors() []r3.Vector {
	out := make([]r3.Vector, p.Len())
	for i := range out {
		out[i] = p.At(i)
	}
	return out
}

// Clone returns a copy that shares no memory with p.
func (p Positions) Clone() Positions {
	return Positions{
		X: append([]float64(nil), p.X...),
		Y: append([]float64(nil), p.Y...),
		Z: append([]float64(nil), p.Z...),
	}
}

func (p Positions) validate() error {
	if len(p.X) != len(p.Y) || len(p.X) != len(p.Z) {
		return errors.Errorf("mismatched coordinate columns: %d x, %d y, %d z", len(p.X), len(p.Y), len(p.Z))
	}
	return nil
}
