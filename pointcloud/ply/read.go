package ply

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadFile reads the PLY file at path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return Read(f)
}

// Read decodes a PLY file. Anything that follows the last element's data is ignored.
func Read(r io.Reader) (*File, error) {
	in := bufio.NewReader(r)
	file, err := readHeader(in)
	if err != nil {
		return nil, err
	}

	switch file.Format {
	case FormatASCII:
		err = readASCIIBody(in, file)
	case FormatBinaryLittleEndian, FormatBinaryBigEndian:
		err = readBinaryBody(in, file)
	default:
		err = bodyErrorf("unsupported format %v", file.Format)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func readHeader(in *bufio.Reader) (*File, error) {
	file := &File{}
	var current *Element
	var sawFormat bool
	lineNum := 0
	for {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil, headerErrorf(lineNum+1, "header ended before end_header")
			}
			return nil, err
		}
		lineNum++
		line = strings.TrimRight(line, "\r\n")

		if lineNum == 1 {
			if strings.TrimSpace(line) != "ply" {
				return nil, headerErrorf(lineNum, "not a ply file, expected magic \"ply\" but got %q", line)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		keyword, tokens := fields[0], fields[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), keyword))
		switch keyword {
		case "format":
			if sawFormat {
				return nil, headerErrorf(lineNum, "duplicate format line")
			}
			if len(tokens) != 2 {
				return nil, headerErrorf(lineNum, "format line needs a format and a version: %q", line)
			}
			format, ok := ParseFormat(tokens[0])
			if !ok {
				return nil, headerErrorf(lineNum, "unsupported format %q", tokens[0])
			}
			file.Format = format
			file.Version = tokens[1]
			sawFormat = true
		case "comment":
			file.Comments = append(file.Comments, rest)
		case "obj_info":
			file.ObjInfo = append(file.ObjInfo, rest)
		case "element":
			if len(tokens) != 2 {
				return nil, headerErrorf(lineNum, "element line needs a name and a count: %q", line)
			}
			count, err := strconv.ParseUint(tokens[1], 10, 31)
			if err != nil {
				return nil, headerErrorf(lineNum, "invalid element count %q", tokens[1])
			}
			current = &Element{Name: tokens[0], Count: int(count)}
			if err := file.AddElement(current); err != nil {
				return nil, headerErrorf(lineNum, "%s", err)
			}
		case "property":
			if current == nil {
				return nil, headerErrorf(lineNum, "property before any element")
			}
			prop, err := parseProperty(tokens)
			if err != nil {
				return nil, headerErrorf(lineNum, "%s", err)
			}
			if err := current.declareProperty(prop); err != nil {
				return nil, headerErrorf(lineNum, "%s", err)
			}
		case "end_header":
			if !sawFormat {
				return nil, headerErrorf(lineNum, "missing format line")
			}
			return file, nil
		default:
			return nil, headerErrorf(lineNum, "unknown header keyword %q", keyword)
		}
	}
}

func parseProperty(tokens []string) (Property, error) {
	if len(tokens) > 0 && tokens[0] == "list" {
		if len(tokens) != 4 {
			return Property{}, errors.Errorf("list property needs a count type, an item type and a name: %v", tokens)
		}
		countType, ok := ParseScalarType(tokens[1])
		if !ok {
			return Property{}, errors.Errorf("unknown type %q", tokens[1])
		}
		itemType, ok := ParseScalarType(tokens[2])
		if !ok {
			return Property{}, errors.Errorf("unknown type %q", tokens[2])
		}
		prop := ListProperty(tokens[3], countType, itemType)
		prop.countTypeName = tokens[1]
		prop.typeName = tokens[2]
		return prop, nil
	}
	if len(tokens) != 2 {
		return Property{}, errors.Errorf("property needs a type and a name: %v", tokens)
	}
	t, ok := ParseScalarType(tokens[0])
	if !ok {
		return Property{}, errors.Errorf("unknown type %q", tokens[0])
	}
	prop := ScalarProperty(tokens[1], t)
	prop.typeName = tokens[0]
	return prop, nil
}

func readASCIIBody(in *bufio.Reader, file *File) error {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	next := func(e *Element, row int, p Property) (string, error) {
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", bodyErrorf("unexpected end of data in element %q instance %d property %q", e.Name, row, p.Name)
	}

	for _, e := range file.Elements {
		for row := 0; row < e.Count; row++ {
			for i, p := range e.Properties {
				if !p.List {
					tok, err := next(e, row, p)
					if err != nil {
						return err
					}
					v, err := parseASCIIValue(tok, p.Type)
					if err != nil {
						return bodyErrorf("element %q instance %d property %q: %s", e.Name, row, p.Name, err)
					}
					e.columns[i].scalars = append(e.columns[i].scalars, v)
					continue
				}

				tok, err := next(e, row, p)
				if err != nil {
					return err
				}
				n, err := parseASCIIValue(tok, p.CountType)
				if err != nil || n < 0 {
					return bodyErrorf("element %q instance %d property %q: bad list count %q", e.Name, row, p.Name, tok)
				}
				list := make([]float64, 0, min(int(n), maxPrealloc))
				for j := 0; j < int(n); j++ {
					tok, err := next(e, row, p)
					if err != nil {
						return err
					}
					v, err := parseASCIIValue(tok, p.Type)
					if err != nil {
						return bodyErrorf("element %q instance %d property %q: %s", e.Name, row, p.Name, err)
					}
					list = append(list, v)
				}
				e.columns[i].lists = append(e.columns[i].lists, list)
			}
		}
	}
	return nil
}

func parseASCIIValue(tok string, t ScalarType) (float64, error) {
	switch t {
	case Float32:
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return 0, errors.Errorf("invalid float %q", tok)
		}
		return v, nil
	case Float64:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, errors.Errorf("invalid double %q", tok)
		}
		return v, nil
	default:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || !t.Holds(float64(v)) {
			return 0, errors.Errorf("invalid %s %q", t, tok)
		}
		return float64(v), nil
	}
}

func readBinaryBody(in *bufio.Reader, file *File) error {
	order := file.Format.byteOrder()
	var buf [8]byte
	read := func(t ScalarType, e *Element, row int, p Property) (float64, error) {
		b := buf[:t.Size()]
		if _, err := io.ReadFull(in, b); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, bodyErrorf("unexpected end of data in element %q instance %d property %q", e.Name, row, p.Name)
			}
			return 0, err
		}
		return t.decode(order, b), nil
	}

	for _, e := range file.Elements {
		for row := 0; row < e.Count; row++ {
			for i, p := range e.Properties {
				if !p.List {
					v, err := read(p.Type, e, row, p)
					if err != nil {
						return err
					}
					e.columns[i].scalars = append(e.columns[i].scalars, v)
					continue
				}

				n, err := read(p.CountType, e, row, p)
				if err != nil {
					return err
				}
				if n < 0 {
					return bodyErrorf("element %q instance %d property %q: negative list count %v", e.Name, row, p.Name, n)
				}
				list := make([]float64, 0, min(int(n), maxPrealloc))
				for j := 0; j < int(n); j++ {
					v, err := read(p.Type, e, row, p)
					if err != nil {
						return err
					}
					list = append(list, v)
				}
				e.columns[i].lists = append(e.columns[i].lists, list)
			}
		}
	}
	return nil
}
