// Package main is a command that shifts a point cloud so its bounding box is centered on the
// origin and saves the result next to the working directory.
package main

import (
	"context"

	"go.viam.com/utils"

	"go.viam.com/recenter/logging"
	"go.viam.com/recenter/pointcloud"
)

var logger = logging.NewLogger("recenter")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Input   string `flag:"0,required,usage=point cloud file to recenter (PLY or LAS)"`
	Output  string `flag:"output,usage=where to save the result (defaults to centered_plot with the input extension)"`
	Element string `flag:"element,default=vertex,usage=PLY element holding x/y/z"`
	Debug   bool   `flag:"debug"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(logging.DEBUG)
	}

	res, err := pointcloud.RecenterFile(ctx, pointcloud.RecenterConfig{
		InputPath:   argsParsed.Input,
		OutputPath:  argsParsed.Output,
		ElementName: argsParsed.Element,
	}, logger)
	if err != nil {
		return err
	}
	logger.Infof("Output saved to %s", res.OutputPath)
	return nil
}
