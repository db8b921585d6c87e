// Package cli contains the voxelnav command line tooling for offline map inspection.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/voxelnav/logging"
)

const (
	flagDebug         = "debug"
	flagLogFile       = "log-file"
	flagConfig        = "config"
	flagInput         = "input"
	flagLog           = "log"
	flagFrames        = "frames"
	flagStart         = "start"
	flagSamples       = "samples"
	flagTryToPlanIter = "try-to-plan-iter"
	flagOutDir        = "out-dir"
	flagScale         = "scale"
	flagPCD           = "pcd"
	flagOutput        = "output"
)

var sourceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage:   "load parameters from `FILE`; trailing section.key=value arguments override them",
	},
	&cli.StringFlag{
		Name:    flagInput,
		Aliases: []string{"i"},
		Usage:   "map snapshot `FILE` to load",
	},
	&cli.StringFlag{
		Name:  flagLog,
		Usage: "observation log `FILE` to replay into a fresh map",
	},
	&cli.IntFlag{
		Name:  flagFrames,
		Value: -1,
		Usage: "number of logged frames to replay, all when negative",
	},
}

// NewApp returns the voxelnav command line application writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "voxelnav",
		Usage:           "inspect voxel maps and frontier plans offline",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated at 64MB",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "print map statistics, render the navigation masks, and plan to a frontier",
				ArgsUsage: "[section.key=value ...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagStart,
						Value: "0,0,0",
						Usage: "start pose as `x,y,theta` in cm and radians",
					},
					&cli.IntFlag{
						Name:  flagSamples,
						Value: 5,
						Usage: "number of ranked frontier goals to print",
					},
					&cli.IntFlag{
						Name:  flagTryToPlanIter,
						Usage: "frontier candidates to try when planning, the configured value when zero",
					},
					&cli.StringFlag{
						Name:  flagOutDir,
						Usage: "write the navigation masks as PNG images into `DIR`",
					},
					&cli.IntFlag{
						Name:  flagScale,
						Value: 4,
						Usage: "pixels per grid cell in written images",
					},
					&cli.StringFlag{
						Name:  flagPCD,
						Usage: "export confirmed voxels as an ASCII PCD `FILE`",
					},
				}, sourceFlags...),
				Action: InspectAction,
			},
			{
				Name:      "convert",
				Usage:     "replay an observation log and save the resulting map snapshot",
				ArgsUsage: "[section.key=value ...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "snapshot `FILE` to write",
					},
				}, sourceFlags...),
				Action: ConvertAction,
			},
		},
	}
}

// newLogger returns the command logger and a function that closes its log file, if any.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	logger := logging.NewBlankLogger("voxelnav")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(flagDebug) {
		logger.SetLevel(logging.INFO)
	}
	path := c.String(flagLogFile)
	if path == "" {
		return logger, func() {}
	}
	file := logging.NewFileAppender(path, 64, 3)
	logger.AddAppender(file)
	return logger, func() {
		goutils.UncheckedError(logger.Sync())
		goutils.UncheckedError(file.Close())
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
