package pointcloud

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DefaultElementName is the PLY element that conventionally holds the points.
	DefaultElementName = "vertex"

	defaultOutputStem = "centered_plot"
)

// RecenterConfig describes one recentering run.
type RecenterConfig struct {
	InputPath string
	// OutputPath defaults to DefaultOutputPath(InputPath).
	OutputPath string
	// ElementName is the PLY element holding x, y and z. Defaults to DefaultElementName. Unused
	// for LAS files.
	ElementName string
}

// DefaultOutputPath is the output file used when none is configured: centered_plot with the
// input's extension, in the working directory.
func DefaultOutputPath(inputPath string) string {
	return defaultOutputStem + strings.ToLower(filepath.Ext(inputPath))
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (cfg *RecenterConfig) Validate() error {
	if cfg.InputPath == "" {
		return errors.New("an input path is required")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath(cfg.InputPath)
	}
	if cfg.ElementName == "" {
		cfg.ElementName = DefaultElementName
	}

	in, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return errors.Wrapf(err, "resolving input path %q", cfg.InputPath)
	}
	out, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return errors.Wrapf(err, "resolving output path %q", cfg.OutputPath)
	}
	if in == out {
		return errors.Errorf("output path %q would overwrite the input", cfg.OutputPath)
	}

	inExt, outExt := strings.ToLower(filepath.Ext(in)), strings.ToLower(filepath.Ext(out))
	if inExt != outExt {
		return errors.Errorf("output %q must have the same format (%s) as the input", cfg.OutputPath, inExt)
	}
	return nil
}
