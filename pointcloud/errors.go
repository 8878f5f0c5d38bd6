package pointcloud

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/recenter/pointcloud/ply"
)

var (
	// ErrFormat is matched by errors caused by a malformed input file, or one without an
	// x/y/z-bearing element. It is the same value as ply.ErrFormat.
	ErrFormat = ply.ErrFormat

	// ErrEmptyCloud is returned for a well formed cloud with no points, whose bounding box (and so
	// center) is undefined.
	ErrEmptyCloud = errors.New("point cloud has no points")

	// ErrNonFiniteCoordinate is returned when a coordinate is NaN or infinite, which would turn
	// every recentered coordinate on that axis into NaN.
	ErrNonFiniteCoordinate = errors.New("point cloud has a non-finite coordinate")
)

func formatErrorf(format string, args ...interface{}) error {
	return &ply.FormatError{Msg: fmt.Sprintf(format, args...)}
}
