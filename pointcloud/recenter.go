package pointcloud

import (
	"gonum.org/v1/gonum/floats"

	"go.viam.com/recenter/pointcloud/ply"
)

// Recentered returns a copy of p translated so that its bounding box is centered on the origin,
// along with the bounding box of p. Every point becomes p[i] - center. p is not modified.
func Recentered(p Positions) (Positions, BoundingBox, error) {
	box, err := NewBoundingBox(p)
	if err != nil {
		return Positions{}, BoundingBox{}, err
	}
	center := box.Center()

	out := p.Clone()
	floats.AddConst(-center.X, out.X)
	floats.AddConst(-center.Y, out.Y)
	floats.AddConst(-center.Z, out.Z)
	return out, box, nil
}

var positionProperties = [3]string{"x", "y", "z"}

// PLYPositions returns the coordinates held by the named element of cloud. The element must have
// floating point scalar x, y and z properties.
func PLYPositions(cloud *ply.File, elementName string) (Positions, error) {
	elem, ok := cloud.Element(elementName)
	if !ok {
		return Positions{}, formatErrorf("no %q element", elementName)
	}

	var cols [3][]float64
	for i, name := range positionProperties {
		prop, ok := elem.Property(name)
		if !ok {
			return Positions{}, formatErrorf("element %q has no %q property", elementName, name)
		}
		if prop.List {
			return Positions{}, formatErrorf("property %q of element %q is a list", name, elementName)
		}
		if !prop.Type.IsFloat() {
			return Positions{}, formatErrorf("property %q of element %q must be a float or double, not %s",
				name, elementName, prop.Type)
		}
		cols[i], _ = elem.Scalars(name)
	}
	return Positions{X: cols[0], Y: cols[1], Z: cols[2]}, nil
}

// RecenterPLY returns a copy of cloud in which the x, y and z of the named element are shifted so
// that their bounding box is centered on the origin. Every other element, property, comment and
// the format are carried over unchanged. cloud itself is not modified.
func RecenterPLY(cloud *ply.File, elementName string) (*ply.File, BoundingBox, error) {
	positions, err := PLYPositions(cloud, elementName)
	if err != nil {
		return nil, BoundingBox{}, err
	}
	centered, box, err := Recentered(positions)
	if err != nil {
		return nil, BoundingBox{}, err
	}

	out := cloud.Clone()
	elem, _ := out.Element(elementName)
	for i, col := range [3][]float64{centered.X, centered.Y, centered.Z} {
		if err := elem.SetScalars(positionProperties[i], col); err != nil {
			return nil, BoundingBox{}, err
		}
	}
	return out, box, nil
}
