package rimage

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/semantic"
)

// Saturated depth readings are replaced by values far beyond any vision range so the point cloud
// and semantic map ignore them.
const (
	MinDepthReplacementCM = 10000
	MaxDepthReplacementCM = 10001
)

// Config describes the frame geometry and depth encoding.
type Config struct {
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
	MinDepthM   float64 `json:"min_depth"`
	MaxDepthM   float64 `json:"max_depth"`
	// GroundTruthSemantics maps the observation's instance ids instead of running a segmenter.
	GroundTruthSemantics bool `json:"ground_truth_semantics"`
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	if cfg.FrameWidth <= 0 || cfg.FrameHeight <= 0 {
		return errors.Errorf("invalid frame size %dx%d", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.MinDepthM < 0 || cfg.MaxDepthM <= cfg.MinDepthM {
		return errors.Errorf("invalid depth range [%v, %v]", cfg.MinDepthM, cfg.MaxDepthM)
	}
	return nil
}

// Preprocessor converts observations into frames. It holds no per-episode state besides the
// mapping it was given, so one instance may serve several environments concurrently as long as the
// mapping is not reset meanwhile.
type Preprocessor struct {
	cfg       Config
	mapping   *semantic.Mapping
	segmenter semantic.Segmenter
	logger    logging.Logger
}

// NewPreprocessor returns a preprocessor. A segmenter is required unless ground-truth semantics
// are configured.
func NewPreprocessor(cfg Config, mapping *semantic.Mapping, segmenter semantic.Segmenter, logger logging.Logger) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, errors.New("semantic mapping is required")
	}
	if !cfg.GroundTruthSemantics && segmenter == nil {
		return nil, errors.New("predicted semantics require a segmenter")
	}
	return &Preprocessor{cfg: cfg, mapping: mapping, segmenter: segmenter, logger: logger}, nil
}

// Config returns the preprocessor configuration.
func (p *Preprocessor) Config() Config {
	return p.cfg
}

// RescaleDepth converts normalized depth to centimeters. Readings at exactly 0 or 1 were clipped by
// the sensor and are replaced with out-of-range sentinels.
func (p *Preprocessor) RescaleDepth(depth []float32) []float32 {
	minCM := p.cfg.MinDepthM * 100
	spanCM := (p.cfg.MaxDepthM - p.cfg.MinDepthM) * 100
	out := make([]float32, len(depth))
	for i, d := range depth {
		switch d {
		case 0:
			out[i] = MinDepthReplacementCM
		case 1:
			out[i] = MaxDepthReplacementCM
		default:
			out[i] = float32(minCM + float64(d)*spanCM)
		}
	}
	return out
}

// Preprocess converts one observation.
func (p *Preprocessor) Preprocess(ctx context.Context, obs *Observation) (*Frame, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	envW, envH := obs.Size()
	k, ok := downscaleFactor(envW, envH, p.cfg.FrameWidth, p.cfg.FrameHeight)
	if !ok {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot downscale %dx%d to %dx%d by an integer factor",
			envW, envH, p.cfg.FrameWidth, p.cfg.FrameHeight)
	}
	for i, d := range obs.Depth {
		if math.IsNaN(float64(d)) || d < 0 || d > 1 {
			return nil, errors.Wrapf(ErrShapeMismatch, "depth pixel %d out of [0, 1]: %v", i, d)
		}
	}

	rgb := obs.RGB
	if rgb.Rect.Min != (image.Point{}) {
		rgb = normalizeOrigin(rgb)
	}
	depthCM := p.RescaleDepth(obs.Depth)
	categories, err := p.categories(ctx, obs, rgb, depthCM)
	if err != nil {
		return nil, err
	}

	frame := &Frame{
		Width:         p.cfg.FrameWidth,
		Height:        p.cfg.FrameHeight,
		RGB:           downscaleRGB(rgb, k),
		DepthCM:       downscaleDepth(depthCM, envW, envH, k),
		Categories:    downscaleNearest(categories, envW, envH, k),
		NumCategories: p.mapping.NumCategories(),
		Timestamp:     obs.Timestamp,
	}
	frame.SemanticVis = p.semanticVis(frame.RGB, frame.Categories)
	frame.Stats = computeStats(frame.DepthCM, p.cfg.MinDepthM*100, p.cfg.MaxDepthM*100)

	if obs.ObjectGoal != nil {
		id, name, err := p.mapping.MapGoalID(*obs.ObjectGoal)
		if err != nil {
			return nil, err
		}
		frame.HasGoal, frame.GoalID, frame.GoalName = true, id, name
	}
	return frame, nil
}

// categories builds the full-resolution semantic channel.
func (p *Preprocessor) categories(ctx context.Context, obs *Observation, rgb *image.NRGBA, depthCM []float32) ([]int32, error) {
	if p.cfg.GroundTruthSemantics && len(obs.Semantic) != 0 && p.mapping.HasInstances() {
		return p.mapping.MapFrame(obs.Semantic), nil
	}
	if p.segmenter == nil {
		p.logger.CDebug(ctx, "no ground-truth instances or segmenter for frame, labeling everything other")
		out := make([]int32, len(depthCM))
		for i := range out {
			out[i] = int32(p.mapping.OtherID())
		}
		return out, nil
	}
	predicted, err := p.segmenter.Segment(ctx, rgb, depthCM)
	if err != nil {
		return nil, errors.Wrap(err, "segmenting frame")
	}
	if len(predicted) != len(depthCM) {
		return nil, errors.Wrapf(ErrShapeMismatch, "segmenter returned %d labels for %d pixels", len(predicted), len(depthCM))
	}
	return predicted, nil
}

// semanticVis shows the RGB image where the category is "other" and the palette color elsewhere.
func (p *Preprocessor) semanticVis(rgb *image.NRGBA, categories []int32) *image.NRGBA {
	b := rgb.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for r := 0; r < b.Dy(); r++ {
		for c := 0; c < b.Dx(); c++ {
			cat := int(categories[r*b.Dx()+c])
			var px color.NRGBA
			if p.mapping.IsInformative(cat) {
				px = p.mapping.Color(cat)
			} else {
				px = rgb.NRGBAAt(b.Min.X+c, b.Min.Y+r)
			}
			out.SetNRGBA(c, r, px)
		}
	}
	return out
}

// PreprocessBatch converts one observation per environment in parallel. Environments share no
// mutable state, so the first failure cancels the rest and is returned.
func (p *Preprocessor) PreprocessBatch(ctx context.Context, batch []*Observation) ([]*Frame, error) {
	return p.preprocessAll(ctx, batch, "environment")
}

// PreprocessSequence converts the observations of one environment over consecutive timesteps, in
// parallel and in order. The object goal is read from the first observation only and carried by
// every frame. Poses are not integrated here; feed the readings to an odometry.Tracker in order.
func (p *Preprocessor) PreprocessSequence(ctx context.Context, seq []*Observation) ([]*Frame, error) {
	if len(seq) == 0 {
		return nil, nil
	}
	stripped := make([]*Observation, len(seq))
	for i, obs := range seq {
		if i > 0 && obs != nil && obs.ObjectGoal != nil {
			withoutGoal := *obs
			withoutGoal.ObjectGoal = nil
			obs = &withoutGoal
		}
		stripped[i] = obs
	}
	frames, err := p.preprocessAll(ctx, stripped, "timestep")
	if err != nil {
		return nil, err
	}
	first := frames[0]
	for _, f := range frames[1:] {
		f.HasGoal, f.GoalID, f.GoalName = first.HasGoal, first.GoalID, first.GoalName
	}
	return frames, nil
}

func (p *Preprocessor) preprocessAll(ctx context.Context, observations []*Observation, unit string) ([]*Frame, error) {
	frames := make([]*Frame, len(observations))
	g, gctx := errgroup.WithContext(ctx)
	for i, obs := range observations {
		g.Go(func() error {
			frame, err := p.Preprocess(gctx, obs)
			if err != nil {
				return errors.Wrapf(err, "%s %d", unit, i)
			}
			frames[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func normalizeOrigin(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+4*b.Dx()], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}
