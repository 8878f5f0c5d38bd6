package ply

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Write encodes file to out in file.Format. The file is validated first so that nothing is
// written for a file that could not be encoded in full.
func Write(out io.Writer, file *File) error {
	if err := Validate(file); err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	if err := writeHeader(w, file); err != nil {
		return err
	}

	var err error
	switch file.Format {
	case FormatASCII:
		err = writeASCIIBody(w, file)
	default:
		err = writeBinaryBody(w, file)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// Validate checks that every column matches its element's count and that every value fits the
// type it will be written as.
func Validate(file *File) error {
	if _, ok := formatNames[file.Format]; !ok {
		return errors.Errorf("unsupported format %v", file.Format)
	}
	seen := make(map[string]struct{}, len(file.Elements))
	for _, e := range file.Elements {
		if e.Name == "" || strings.ContainsAny(e.Name, " \t\r\n") {
			return errors.Errorf("invalid element name %q", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return errors.Errorf("duplicate element %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		if len(e.columns) != len(e.Properties) {
			return errors.Errorf("element %q has %d properties but %d columns", e.Name, len(e.Properties), len(e.columns))
		}
		for i, p := range e.Properties {
			if p.Name == "" || strings.ContainsAny(p.Name, " \t\r\n") {
				return errors.Errorf("invalid property name %q in element %q", p.Name, e.Name)
			}
			col := e.columns[i]
			if !p.List {
				if len(col.scalars) != e.Count {
					return errors.Errorf("property %q of element %q has %d values for %d instances",
						p.Name, e.Name, len(col.scalars), e.Count)
				}
				for row, v := range col.scalars {
					if !p.Type.Holds(v) {
						return errors.Errorf("element %q instance %d: value %v does not fit %s property %q",
							e.Name, row, v, p.Type, p.Name)
					}
				}
				continue
			}
			if len(col.lists) != e.Count {
				return errors.Errorf("property %q of element %q has %d lists for %d instances",
					p.Name, e.Name, len(col.lists), e.Count)
			}
			for row, list := range col.lists {
				if !p.CountType.Holds(float64(len(list))) {
					return errors.Errorf("element %q instance %d: list of %d values does not fit count type %s of %q",
						e.Name, row, len(list), p.CountType, p.Name)
				}
				for _, v := range list {
					if !p.Type.Holds(v) {
						return errors.Errorf("element %q instance %d: value %v does not fit %s property %q",
							e.Name, row, v, p.Type, p.Name)
					}
				}
			}
		}
	}
	return nil
}

func writeHeader(w *bufio.Writer, file *File) error {
	version := file.Version
	if version == "" {
		version = Version
	}
	lines := []string{"ply", fmt.Sprintf("format %s %s", file.Format, version)}
	for _, c := range file.Comments {
		lines = append(lines, strings.TrimSpace("comment "+c))
	}
	for _, o := range file.ObjInfo {
		lines = append(lines, strings.TrimSpace("obj_info "+o))
	}
	for _, e := range file.Elements {
		lines = append(lines, fmt.Sprintf("element %s %d", e.Name, e.Count))
		for _, p := range e.Properties {
			lines = append(lines, p.headerLine())
		}
	}
	lines = append(lines, "end_header")
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatASCIIValue(v float64, t ScalarType) string {
	switch t {
	case Float32:
		return strconv.FormatFloat(v, 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

func writeASCIIBody(w *bufio.Writer, file *File) error {
	var fields []string
	for _, e := range file.Elements {
		for row := 0; row < e.Count; row++ {
			fields = fields[:0]
			for i, p := range e.Properties {
				if !p.List {
					fields = append(fields, formatASCIIValue(e.columns[i].scalars[row], p.Type))
					continue
				}
				list := e.columns[i].lists[row]
				fields = append(fields, strconv.Itoa(len(list)))
				for _, v := range list {
					fields = append(fields, formatASCIIValue(v, p.Type))
				}
			}
			if _, err := w.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeBinaryBody(w *bufio.Writer, file *File) error {
	order := file.Format.byteOrder()
	var buf [8]byte
	put := func(t ScalarType, v float64) error {
		b := buf[:t.Size()]
		t.encode(order, v, b)
		_, err := w.Write(b)
		return err
	}

	for _, e := range file.Elements {
		for row := 0; row < e.Count; row++ {
			for i, p := range e.Properties {
				if !p.List {
					if err := put(p.Type, e.columns[i].scalars[row]); err != nil {
						return err
					}
					continue
				}
				list := e.columns[i].lists[row]
				if err := put(p.CountType, float64(len(list))); err != nil {
					return err
				}
				for _, v := range list {
					if err := put(p.Type, v); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
