package pointcloud

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/recenter/logging"
	"go.viam.com/recenter/pointcloud/ply"
)

// Formats RecenterFile knows how to read and write, keyed by file extension.
const (
	FormatPLY = "ply"
	FormatLAS = "las"
)

// float32 represents every integer up to this magnitude; past it coordinates lose precision.
const maxPreciseFloat32 = 1 << 24

// Result describes a completed recentering.
type Result struct {
	OutputPath string
	Format     string
	NumPoints  int
	// Bounds is the bounding box of the input points.
	Bounds BoundingBox
	Center r3.Vector
}

// RecenterFile reads the point cloud at cfg.InputPath, recenters it and writes it to
// cfg.OutputPath in the same format. The output is written to a temporary file which is renamed
// into place only once complete, so on error no output file exists. The input is never modified.
func RecenterFile(ctx context.Context, cfg RecenterConfig, logger logging.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(cfg.InputPath); err != nil {
		return Result{}, errors.Wrap(err, "cannot read input")
	}

	switch format := strings.TrimPrefix(strings.ToLower(filepath.Ext(cfg.InputPath)), "."); format {
	case FormatPLY:
		return recenterPLYFile(ctx, cfg, logger)
	case FormatLAS:
		return recenterLASFile(ctx, cfg, logger)
	default:
		return Result{}, formatErrorf("do not know how to read file %q", cfg.InputPath)
	}
}

func recenterPLYFile(ctx context.Context, cfg RecenterConfig, logger logging.Logger) (Result, error) {
	cloud, err := ply.ReadFile(cfg.InputPath)
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading %q", cfg.InputPath)
	}
	logger.Debugw("read ply file", "path", cfg.InputPath, "format", cloud.Format.String(), "elements", len(cloud.Elements))

	centered, box, err := RecenterPLY(cloud, cfg.ElementName)
	if err != nil {
		return Result{}, errors.Wrapf(err, "recentering %q", cfg.InputPath)
	}
	elem, _ := centered.Element(cfg.ElementName)
	warnIfImprecise(logger, elem, box)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	err = writeFileAtomic(cfg.OutputPath, func(tmpPath string) (err error) {
		//nolint:gosec
		f, err := os.Create(tmpPath)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		if err := ply.Write(f, centered); err != nil {
			return err
		}
		return f.Sync()
	})
	if err != nil {
		return Result{}, errors.Wrapf(err, "writing %q", cfg.OutputPath)
	}

	res := Result{
		OutputPath: cfg.OutputPath,
		Format:     FormatPLY,
		NumPoints:  elem.Count,
		Bounds:     box,
		Center:     box.Center(),
	}
	logRecentered(logger, res)
	return res, nil
}

// warnIfImprecise warns when a float32 coordinate column spans values too large for the shift to
// be exact.
func warnIfImprecise(logger logging.Logger, elem *ply.Element, box BoundingBox) {
	maxAbs := box.MaxAbs()
	if maxAbs <= maxPreciseFloat32 {
		return
	}
	for _, name := range positionProperties {
		prop, _ := elem.Property(name)
		if prop.Type == ply.Float32 {
			logger.Warnw("potential floating point lossiness for float32 coordinates",
				"property", name, "max_abs", maxAbs)
			return
		}
	}
}

func logRecentered(logger logging.Logger, res Result) {
	logger.Debugw("recentered point cloud",
		"points", res.NumPoints,
		"min", res.Bounds.Min,
		"max", res.Bounds.Max,
		"center", res.Center)
}

// writeFileAtomic calls write with the path of a fresh temporary file next to path and renames it
// to path if write succeeds. On failure the temporary file is removed.
func writeFileAtomic(path string, write func(tmpPath string) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return multierr.Combine(err, os.Remove(tmpPath))
	}
	defer func() {
		if err != nil {
			utils.UncheckedError(os.Remove(tmpPath))
		}
	}()

	if err := write(tmpPath); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
