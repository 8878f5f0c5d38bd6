// Package ply reads and writes Stanford PLY files without losing any of their schema.
//
// A File keeps every element, every property (scalar or list), the comments and the obj_info
// lines of the header, in their original order and with their original type spellings, so that
// a file read and written back describes exactly the same data.
//
// Values are stored column-wise as float64. Every PLY scalar type is exactly representable as a
// float64, which makes writing a value back out in its declared type lossless.
package ply

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrFormat is matched (with errors.Is) by every error caused by malformed PLY data.
var ErrFormat = errors.New("invalid ply data")

// FormatError describes malformed PLY data. Line is the 1-based header line the problem was
// found on, or 0 when the problem is in the body.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrFormat, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrFormat, e.Msg)
}

// Is makes errors.Is(err, ErrFormat) true for any *FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func headerErrorf(line int, format string, args ...interface{}) error {
	return &FormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func bodyErrorf(format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// Version is the only PLY version in use.
const Version = "1.0"

// File is a decoded PLY file.
type File struct {
	Format   Format
	Version  string
	Comments []string
	ObjInfo  []string
	Elements []*Element
}

// NewFile returns an empty file of the given format.
func NewFile(format Format) *File {
	return &File{Format: format, Version: Version}
}

// Element returns the element with the given name.
func (f *File) Element(name string) (*Element, bool) {
	for _, e := range f.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// AddElement appends an element, rejecting duplicate names.
func (f *File) AddElement(e *Element) error {
	if _, ok := f.Element(e.Name); ok {
		return errors.Errorf("duplicate element %q", e.Name)
	}
	f.Elements = append(f.Elements, e)
	return nil
}

// Clone returns a deep copy; nothing is shared with the receiver.
func (f *File) Clone() *File {
	clone := &File{
		Format:   f.Format,
		Version:  f.Version,
		Comments: append([]string(nil), f.Comments...),
		ObjInfo:  append([]string(nil), f.ObjInfo...),
		Elements: make([]*Element, 0, len(f.Elements)),
	}
	for _, e := range f.Elements {
		clone.Elements = append(clone.Elements, e.Clone())
	}
	return clone
}

// Property is a named column of an element. A list property holds, per instance, a count of
// type CountType followed by that many values of type Type.
type Property struct {
	Name      string
	Type      ScalarType
	List      bool
	CountType ScalarType

	// spellings read from the header; empty means use the classic name.
	typeName      string
	countTypeName string
}

// ScalarProperty describes a single-valued property.
func ScalarProperty(name string, t ScalarType) Property {
	return Property{Name: name, Type: t}
}

// ListProperty describes a list property.
func ListProperty(name string, countType, itemType ScalarType) Property {
	return Property{Name: name, Type: itemType, List: true, CountType: countType}
}

func (p Property) headerLine() string {
	typeName := p.typeName
	if typeName == "" {
		typeName = p.Type.String()
	}
	if !p.List {
		return fmt.Sprintf("property %s %s", typeName, p.Name)
	}
	countTypeName := p.countTypeName
	if countTypeName == "" {
		countTypeName = p.CountType.String()
	}
	return fmt.Sprintf("property list %s %s %s", countTypeName, typeName, p.Name)
}

type column struct {
	scalars []float64
	lists   [][]float64
}

// Element is a named table of Count instances, with one column per property.
type Element struct {
	Name       string
	Count      int
	Properties []Property

	columns []column
}

// NewElement returns an element of count instances whose values are all zero (lists empty).
func NewElement(name string, count int, props ...Property) (*Element, error) {
	e := &Element{Name: name, Count: count}
	for _, p := range props {
		if err := e.addProperty(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// maxPrealloc caps the rows or list items reserved before their values are decoded.
const maxPrealloc = 1 << 16

func (e *Element) addProperty(p Property) error {
	if err := e.checkProperty(p); err != nil {
		return err
	}
	var col column
	if p.List {
		col.lists = make([][]float64, e.Count)
	} else {
		col.scalars = make([]float64, e.Count)
	}
	e.Properties = append(e.Properties, p)
	e.columns = append(e.columns, col)
	return nil
}

// declareProperty adds p with empty columns that the body decoder appends to.
func (e *Element) declareProperty(p Property) error {
	if err := e.checkProperty(p); err != nil {
		return err
	}
	var col column
	if p.List {
		col.lists = make([][]float64, 0, min(e.Count, maxPrealloc))
	} else {
		col.scalars = make([]float64, 0, min(e.Count, maxPrealloc))
	}
	e.Properties = append(e.Properties, p)
	e.columns = append(e.columns, col)
	return nil
}

func (e *Element) checkProperty(p Property) error {
	if _, ok := e.PropertyIndex(p.Name); ok {
		return errors.Errorf("duplicate property %q in element %q", p.Name, e.Name)
	}
	if p.Type.Size() == 0 || (p.List && p.CountType.Size() == 0) {
		return errors.Errorf("property %q in element %q has no valid type", p.Name, e.Name)
	}
	if p.List && p.CountType.IsFloat() {
		return errors.Errorf("list property %q in element %q has a floating point count type", p.Name, e.Name)
	}
	return nil
}

// PropertyIndex returns the position of the named property.
func (e *Element) PropertyIndex(name string) (int, bool) {
	for i, p := range e.Properties {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Property returns the named property.
func (e *Element) Property(name string) (Property, bool) {
	i, ok := e.PropertyIndex(name)
	if !ok {
		return Property{}, false
	}
	return e.Properties[i], true
}

// Scalars returns the values of a scalar property. The slice is owned by the element.
func (e *Element) Scalars(name string) ([]float64, bool) {
	i, ok := e.PropertyIndex(name)
	if !ok || e.Properties[i].List {
		return nil, false
	}
	return e.columns[i].scalars, true
}

// SetScalars replaces the values of a scalar property with a copy of values, rounded to the
// property's type.
func (e *Element) SetScalars(name string, values []float64) error {
	i, ok := e.PropertyIndex(name)
	if !ok {
		return errors.Errorf("element %q has no property %q", e.Name, name)
	}
	p := e.Properties[i]
	if p.List {
		return errors.Errorf("property %q of element %q is a list", name, e.Name)
	}
	if len(values) != e.Count {
		return errors.Errorf("element %q has %d instances but got %d values for %q", e.Name, e.Count, len(values), name)
	}
	col := make([]float64, len(values))
	for j, v := range values {
		if !p.Type.Holds(v) {
			return errors.Errorf("value %v at %d does not fit %s property %q", v, j, p.Type, name)
		}
		col[j] = p.Type.Normalize(v)
	}
	e.columns[i].scalars = col
	return nil
}

// List returns the values of a list property. The slices are owned by the element.
func (e *Element) List(name string) ([][]float64, bool) {
	i, ok := e.PropertyIndex(name)
	if !ok || !e.Properties[i].List {
		return nil, false
	}
	return e.columns[i].lists, true
}

// SetListAt replaces the list held by instance row of a list property.
func (e *Element) SetListAt(name string, row int, values []float64) error {
	i, ok := e.PropertyIndex(name)
	if !ok {
		return errors.Errorf("element %q has no property %q", e.Name, name)
	}
	p := e.Properties[i]
	if !p.List {
		return errors.Errorf("property %q of element %q is not a list", name, e.Name)
	}
	if row < 0 || row >= e.Count {
		return errors.Errorf("row %d out of range for element %q with %d instances", row, e.Name, e.Count)
	}
	if !p.CountType.Holds(float64(len(values))) {
		return errors.Errorf("list of %d values does not fit count type %s of %q", len(values), p.CountType, name)
	}
	list := make([]float64, len(values))
	for j, v := range values {
		if !p.Type.Holds(v) {
			return errors.Errorf("value %v does not fit %s property %q", v, p.Type, name)
		}
		list[j] = p.Type.Normalize(v)
	}
	e.columns[i].lists[row] = list
	return nil
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	clone := &Element{
		Name:       e.Name,
		Count:      e.Count,
		Properties: append([]Property(nil), e.Properties...),
		columns:    make([]column, len(e.columns)),
	}
	for i, col := range e.columns {
		if col.scalars != nil {
			clone.columns[i].scalars = append([]float64(nil), col.scalars...)
		}
		if col.lists != nil {
			lists := make([][]float64, len(col.lists))
			for j, l := range col.lists {
				lists[j] = append([]float64(nil), l...)
			}
			clone.columns[i].lists = lists
		}
	}
	return clone
}
