package pointcloud

import (
	"context"

	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/recenter/logging"
)

// LAS point formats whose records can be carried over. Format 2 adds RGB to format 0.
const (
	lasPointFormat0 = 0
	lasPointFormat2 = 2
)

// LAS stores coordinates as scaled int32s; past this magnitude a point may not survive a round trip.
const maxPreciseLASCoordinate = 1 << 31

func recenterLASFile(ctx context.Context, cfg RecenterConfig, logger logging.Logger) (Result, error) {
	lf, err := lidario.NewLasFile(cfg.InputPath, "r")
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading %q", cfg.InputPath)
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	formatID := int(lf.Header.PointFormatID)
	if formatID != lasPointFormat0 && formatID != lasPointFormat2 {
		return Result{}, formatErrorf("unsupported LAS point format %d in %q", formatID, cfg.InputPath)
	}

	records, err := readLASPoints(lf)
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading %q", cfg.InputPath)
	}
	positions := lasPositions(records)
	centered, box, err := Recentered(positions)
	if err != nil {
		return Result{}, errors.Wrapf(err, "recentering %q", cfg.InputPath)
	}
	if box.MaxAbs() > maxPreciseLASCoordinate {
		logger.Warnw("potential floating point lossiness for LAS points", "max_abs", box.MaxAbs())
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	err = writeFileAtomic(cfg.OutputPath, func(tmpPath string) error {
		return writeLASPoints(tmpPath, byte(formatID), records, centered, lf.VlrData)
	})
	if err != nil {
		return Result{}, errors.Wrapf(err, "writing %q", cfg.OutputPath)
	}

	res := Result{
		OutputPath: cfg.OutputPath,
		Format:     FormatLAS,
		NumPoints:  len(records),
		Bounds:     box,
		Center:     box.Center(),
	}
	logRecentered(logger, res)
	return res, nil
}

// lasRecord is one point of a LAS file with everything but its position kept as read.
type lasRecord struct {
	point lidario.PointRecord0
	rgb   *lidario.RgbData
}

func readLASPoints(lf *lidario.LasFile) ([]lasRecord, error) {
	records := make([]lasRecord, 0, lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		rec := lasRecord{point: *p.PointData()}
		if rgb := p.RgbData(); rgb != nil {
			c := *rgb
			rec.rgb = &c
		}
		records = append(records, rec)
	}
	return records, nil
}

func lasPositions(records []lasRecord) Positions {
	p := Positions{
		X: make([]float64, len(records)),
		Y: make([]float64, len(records)),
		Z: make([]float64, len(records)),
	}
	for i, rec := range records {
		p.X[i], p.Y[i], p.Z[i] = rec.point.X, rec.point.Y, rec.point.Z
	}
	return p
}

// writeLASPoints writes records to fn with their positions replaced by centered, followed by vlrs.
func writeLASPoints(
	fn string,
	formatID byte,
	records []lasRecord,
	centered Positions,
	vlrs []lidario.VLR,
) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	if err := lf.AddHeader(lidario.LasHeader{PointFormatID: formatID}); err != nil {
		return err
	}
	for i, rec := range records {
		pr0 := rec.point
		pr0.X, pr0.Y, pr0.Z = centered.X[i], centered.Y[i], centered.Z[i]

		var lp lidario.LasPointer = &pr0
		if formatID == lasPointFormat2 {
			rgb := rec.rgb
			if rgb == nil {
				rgb = &lidario.RgbData{}
			}
			lp = &lidario.PointRecord2{PointRecord0: &pr0, RGB: rgb}
		}
		if err := lf.AddLasPoint(lp); err != nil {
			return err
		}
	}
	for _, vlr := range vlrs {
		if err := lf.AddVLR(vlr); err != nil {
			return err
		}
	}
	return nil
}
