package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestBoundingBox(t *testing.T) {
	p := NewPositionsFromVectors([]r3.Vector{
		{X: 10, Y: 100, Z: 1000},
		{X: -20, Y: 200, Z: 3000},
		{X: 30, Y: 150, Z: 2000},
	})
	box, err := NewBoundingBox(p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Min, test.ShouldResemble, r3.Vector{X: -20, Y: 100, Z: 1000})
	test.That(t, box.Max, test.ShouldResemble, r3.Vector{X: 30, Y: 200, Z: 3000})
	test.That(t, box.Center(), test.ShouldResemble, r3.Vector{X: 5, Y: 150, Z: 2000})
	test.That(t, box.Size(), test.ShouldResemble, r3.Vector{X: 50, Y: 100, Z: 2000})
	test.That(t, box.MaxAbs(), test.ShouldEqual, 3000.0)

	box, err = NewBoundingBox(NewPositionsFromVectors([]r3.Vector{{X: -7, Y: 1, Z: 2}}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Min, test.ShouldResemble, box.Max)
	test.That(t, box.MaxAbs(), test.ShouldEqual, 7.0)
}

func TestBoundingBoxErrors(t *testing.T) {
	_, err := NewBoundingBox(Positions{})
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)

	_, err = NewBoundingBox(Positions{X: []float64{1, 2}, Y: []float64{1}, Z: []float64{1, 2}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mismatched")

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		p := NewPositionsFromVectors([]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}})
		p.Y[1] = bad
		_, err := NewBoundingBox(p)
		test.That(t, errors.Is(err, ErrNonFiniteCoordinate), test.ShouldBeTrue)
	}
}
