package pointcloud

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/recenter/logging"
	"go.viam.com/recenter/pointcloud/ply"
)

func writeTestPLY(t *testing.T, path string, cloud *ply.File) {
	t.Helper()
	var buf bytes.Buffer
	test.That(t, ply.Write(&buf, cloud), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o600), test.ShouldBeNil)
}

func TestRecenterFilePLY(t *testing.T) {
	for _, format := range []ply.Format{ply.FormatASCII, ply.FormatBinaryLittleEndian, ply.FormatBinaryBigEndian} {
		t.Run(format.String(), func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "plot.ply")
			out := filepath.Join(dir, "centered_plot.ply")
			writeTestPLY(t, in, newTestCloud(t, format, tetraPoints))
			before, err := os.ReadFile(in)
			test.That(t, err, test.ShouldBeNil)

			logger, logs := logging.NewObservedTestLogger(t)
			res, err := RecenterFile(context.Background(), RecenterConfig{InputPath: in, OutputPath: out}, logger)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, res.OutputPath, test.ShouldEqual, out)
			test.That(t, res.Format, test.ShouldEqual, FormatPLY)
			test.That(t, res.NumPoints, test.ShouldEqual, 4)
			test.That(t, res.Center, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
			test.That(t, res.Bounds.Max, test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})
			test.That(t, logs.FilterMessage("recentered point cloud").Len(), test.ShouldEqual, 1)

			after, err := os.ReadFile(in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, after, test.ShouldResemble, before)

			got, err := ply.ReadFile(out)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got.Format, test.ShouldEqual, format)
			test.That(t, got.Comments, test.ShouldResemble, []string{"test cloud"})
			positions, err := PLYPositions(got, DefaultElementName)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, positions.Vectors(), test.ShouldResemble, []r3.Vector{
				{X: -1, Y: -1, Z: -1},
				{X: 1, Y: -1, Z: -1},
				{X: -1, Y: 1, Z: -1},
				{X: -1, Y: -1, Z: 1},
			})
			vertex, _ := got.Element("vertex")
			red, _ := vertex.Scalars("red")
			test.That(t, red, test.ShouldResemble, []float64{0, 10, 20, 30})
			face, _ := got.Element("face")
			lists, _ := face.List("vertex_indices")
			test.That(t, lists, test.ShouldResemble, [][]float64{{0, 1, 2}})

			entries, err := os.ReadDir(dir)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(entries), test.ShouldEqual, 2)
		})
	}
}

func TestRecenterFileKeepsOtherBytes(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plot.ply")
	out := filepath.Join(dir, "out.ply")
	writeTestPLY(t, in, newTestCloud(t, ply.FormatBinaryLittleEndian, tetraPoints))

	_, err := RecenterFile(context.Background(), RecenterConfig{InputPath: in, OutputPath: out}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	before, err := os.ReadFile(in)
	test.That(t, err, test.ShouldBeNil)
	after, err := os.ReadFile(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(after), test.ShouldEqual, len(before))

	marker := []byte("end_header\n")
	headerLen := bytes.Index(before, marker) + len(marker)
	test.That(t, after[:headerLen], test.ShouldResemble, before[:headerLen])

	// each vertex is three float32s and a uchar
	const vertexSize = 13
	for i := range tetraPoints {
		red := headerLen + i*vertexSize + 12
		test.That(t, after[red], test.ShouldEqual, before[red])
	}
	faces := headerLen + len(tetraPoints)*vertexSize
	test.That(t, after[faces:], test.ShouldResemble, before[faces:])
}

func TestRecenterFileFloat32Warning(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "far.ply")
	writeTestPLY(t, in, newTestCloud(t, ply.FormatASCII, []r3.Vector{
		{X: 2e7, Y: 0, Z: 0},
		{X: 2e7 + 4, Y: 0, Z: 0},
	}))

	logger, logs := logging.NewObservedTestLogger(t)
	res, err := RecenterFile(context.Background(), RecenterConfig{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "out.ply"),
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Center.X, test.ShouldEqual, 2e7+2)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	test.That(t, warnings.Len(), test.ShouldEqual, 1)
	test.That(t, warnings.All()[0].Message, test.ShouldContainSubstring, "float32")
}

func TestRecenterFileErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	noOutput := func(t *testing.T, dir string, want int) {
		t.Helper()
		entries, err := os.ReadDir(dir)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(entries), test.ShouldEqual, want)
	}

	t.Run("missing input", func(t *testing.T) {
		dir := t.TempDir()
		_, err := RecenterFile(context.Background(), RecenterConfig{
			InputPath:  filepath.Join(dir, "nope.ply"),
			OutputPath: filepath.Join(dir, "out.ply"),
		}, logger)
		test.That(t, errors.Is(err, fs.ErrNotExist), test.ShouldBeTrue)
		noOutput(t, dir, 0)
	})

	t.Run("no input", func(t *testing.T) {
		_, err := RecenterFile(context.Background(), RecenterConfig{}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "input path is required")
	})

	t.Run("empty cloud", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "empty.ply")
		writeTestPLY(t, in, newTestCloud(t, ply.FormatASCII, nil))
		_, err := RecenterFile(context.Background(), RecenterConfig{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "out.ply"),
		}, logger)
		test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)
		noOutput(t, dir, 1)
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "bad.ply")
		test.That(t, os.WriteFile(in, []byte("ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\n"), 0o600),
			test.ShouldBeNil)
		_, err := RecenterFile(context.Background(), RecenterConfig{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "out.ply"),
		}, logger)
		test.That(t, errors.Is(err, ErrFormat), test.ShouldBeTrue)
		noOutput(t, dir, 1)
	})

	t.Run("unknown extension", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "plot.xyz")
		test.That(t, os.WriteFile(in, []byte("0 0 0\n"), 0o600), test.ShouldBeNil)
		_, err := RecenterFile(context.Background(), RecenterConfig{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "out.xyz"),
		}, logger)
		test.That(t, errors.Is(err, ErrFormat), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "do not know how to read file")
	})

	t.Run("output is input", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "plot.ply")
		writeTestPLY(t, in, newTestCloud(t, ply.FormatASCII, tetraPoints))
		_, err := RecenterFile(context.Background(), RecenterConfig{InputPath: in, OutputPath: in}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "would overwrite the input")
	})

	t.Run("output format differs", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "plot.ply")
		writeTestPLY(t, in, newTestCloud(t, ply.FormatASCII, tetraPoints))
		_, err := RecenterFile(context.Background(), RecenterConfig{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "out.las"),
		}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "same format")
		noOutput(t, dir, 1)
	})

	t.Run("canceled", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "plot.ply")
		writeTestPLY(t, in, newTestCloud(t, ply.FormatASCII, tetraPoints))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RecenterFile(ctx, RecenterConfig{InputPath: in, OutputPath: filepath.Join(dir, "out.ply")}, logger)
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
		noOutput(t, dir, 1)
	})
}

func TestRecenterConfig(t *testing.T) {
	cfg := RecenterConfig{InputPath: "scans/Plot.PLY"}
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.OutputPath, test.ShouldEqual, "centered_plot.ply")
	test.That(t, cfg.ElementName, test.ShouldEqual, DefaultElementName)

	test.That(t, DefaultOutputPath("a/b/c.las"), test.ShouldEqual, "centered_plot.las")

	cfg = RecenterConfig{InputPath: "centered_plot.ply"}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "would overwrite the input")
}
