package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/voxelnav/config"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/voxelmap"
)

func loadParameters(c *cli.Context, logger logging.Logger) (*config.Parameters, error) {
	overrides := c.Args().Slice()
	if path := c.String(flagConfig); path != "" {
		return config.Read(path, logger, overrides...)
	}
	return config.FromReader(strings.NewReader(""), overrides...)
}

// loadMap reads the snapshot named by --input or replays the log named by --log.
func loadMap(c *cli.Context, params *config.Parameters, logger logging.Logger) (*voxelmap.Map, error) {
	input, log := c.String(flagInput), c.String(flagLog)
	switch {
	case input != "" && log != "":
		return nil, errors.Errorf("only one of --%s and --%s may be set", flagInput, flagLog)
	case input != "":
		return voxelmap.LoadFile(input, logger.Sublogger("voxelmap"))
	case log != "":
		mapping, err := params.Mapping()
		if err != nil {
			return nil, err
		}
		m, err := voxelmap.New(params.VoxelMapConfig(mapping), logger.Sublogger("voxelmap"))
		if err != nil {
			return nil, err
		}
		if _, err := m.ReadFromLog(log, c.Int(flagFrames)); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("one of --%s or --%s is required", flagInput, flagLog)
	}
}

// mapMapping returns the label mapping a map was built with. Maps that do not record one are read
// with the configured mapping.
func mapMapping(m *voxelmap.Map, params *config.Parameters, logger logging.Logger) (*semantic.Mapping, error) {
	cfg := m.Config()
	if cfg.Dataset == "" || cfg.Vocabulary == "" {
		return params.Mapping()
	}
	dataset, err := semantic.ParseDataset(cfg.Dataset)
	if err != nil {
		return nil, errors.Wrap(err, "map dataset")
	}
	vocab, err := semantic.ParseVocabulary(cfg.Vocabulary)
	if err != nil {
		return nil, errors.Wrap(err, "map vocabulary")
	}
	if string(dataset) != params.Semantic.Dataset || string(vocab) != params.Semantic.Vocabulary {
		logger.Infow("reading map with the label mapping it was built with",
			"dataset", dataset, "vocabulary", vocab)
	}
	return semantic.NewMapping(dataset, vocab)
}
