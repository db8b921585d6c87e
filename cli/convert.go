package cli

import (
	"os"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// ConvertAction replays an observation log into a fresh map and saves it as a snapshot.
func ConvertAction(c *cli.Context) error {
	logger, closeLog := newLogger(c)
	defer closeLog()
	params, err := loadParameters(c, logger)
	if err != nil {
		return err
	}
	m, err := loadMap(c, params, logger)
	if err != nil {
		return err
	}
	out := c.String(flagOutput)
	if err := m.SaveFile(out); err != nil {
		return err
	}
	info, err := os.Stat(out)
	if err != nil {
		return errors.Wrapf(err, "checking %q", out)
	}
	printf(c.App.Writer, "saved map %s with %d frames and %d voxels to %s (%s)",
		m.ID(), m.NumFrames(), m.NumVoxels(), out, units.HumanSize(float64(info.Size())))
	return nil
}
