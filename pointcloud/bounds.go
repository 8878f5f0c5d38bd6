package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
)

// BoundingBox is the axis-aligned box spanned by a set of points.
type BoundingBox struct {
	Min, Max r3.Vector
}

// NewBoundingBox computes the bounding box of p. It fails with ErrEmptyCloud when p has no points
// and ErrNonFiniteCoordinate when a coordinate is NaN or infinite.
func NewBoundingBox(p Positions) (BoundingBox, error) {
	if err := p.validate(); err != nil {
		return BoundingBox{}, err
	}
	if p.Len() == 0 {
		return BoundingBox{}, ErrEmptyCloud
	}

	var box BoundingBox
	for _, axis := range []struct {
		vals     []float64
		min, max *float64
	}{
		{p.X, &box.Min.X, &box.Max.X},
		{p.Y, &box.Min.Y, &box.Max.Y},
		{p.Z, &box.Min.Z, &box.Max.Z},
	} {
		if floats.HasNaN(axis.vals) {
			return BoundingBox{}, ErrNonFiniteCoordinate
		}
		*axis.min, *axis.max = floats.Min(axis.vals), floats.Max(axis.vals)
		if math.IsInf(*axis.min, 0) || math.IsInf(*axis.max, 0) {
			return BoundingBox{}, ErrNonFiniteCoordinate
		}
	}
	return box, nil
}

// Center returns (Min + Max) / 2.
func (b BoundingBox) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b BoundingBox) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// MaxAbs returns the largest absolute coordinate inside the box.
func (b BoundingBox) MaxAbs() float64 {
	lo, hi := b.Min.Abs(), b.Max.Abs()
	return math.Max(math.Max(math.Max(lo.X, lo.Y), lo.Z), math.Max(math.Max(hi.X, hi.Y), hi.Z))
}
