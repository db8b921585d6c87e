// Package navspace derives planning structures from the voxel map: the traversable area, the
// unexplored area, and the frontier between them. It also ranks frontier cells as candidate
// exploration goals and declares the exploration state machine driven by the agent.
package navspace

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/spatialmath"
)

// View is the read-only part of the voxel map the navigation space depends on.
type View interface {
	Get2DMap(bounds *gridmap.Bounds) (explored, obstacles *gridmap.Mask, err error)
	Window() gridmap.Bounds
}

// Frontier holds the masks derived from one projection of the map. All masks share Bounds.
type Frontier struct {
	Bounds    gridmap.Bounds
	Explored  *gridmap.Mask
	Obstacles *gridmap.Mask
	// Margin is the obstacle mask grown by the robot radius.
	Margin      *gridmap.Mask
	Outside     *gridmap.Mask
	Traversable *gridmap.Mask
	Frontier    *gridmap.Mask
}

// IsTraversable reports whether the world point lies in a traversable cell.
func (f *Frontier) IsTraversable(x, y float64) bool {
	c, ok := f.Bounds.WorldToCell(x, y)
	return ok && f.Traversable.Get(c)
}

// Space computes frontiers and goals over a voxel map view.
type Space struct {
	view         View
	cfg          Config
	bounds       gridmap.Bounds
	connectivity gridmap.Connectivity
	marginCells  int
	logger       logging.Logger
}

// New returns a navigation space over view.
func New(view View, cfg Config, logger logging.Logger) (*Space, error) {
	if view == nil {
		return nil, errors.New("navigation space needs a map view")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid navigation config")
	}
	bounds := view.Window()
	if cfg.Bounds != nil {
		bounds = *cfg.Bounds
	}
	conn, err := gridmap.ConnectivityFromInt(cfg.Connectivity)
	if err != nil {
		return nil, err
	}
	return &Space{
		view:         view,
		cfg:          cfg,
		bounds:       bounds,
		connectivity: conn,
		marginCells:  int(math.Ceil(cfg.RobotRadiusCM / bounds.ResolutionCM)),
		logger:       logger,
	}, nil
}

// Config returns the navigation configuration.
func (s *Space) Config() Config {
	return s.cfg
}

// Bounds returns the grid the space plans over.
func (s *Space) Bounds() gridmap.Bounds {
	return s.bounds
}

// GetFrontier projects the current map and derives the frontier masks. Outside is every cell not
// yet explored; traversable is explored space outside the safety margin; frontier is the part of
// traversable space adjacent to outside. Every call reflects the current map state.
func (s *Space) GetFrontier() (*Frontier, error) {
	explored, obstacles, err := s.view.Get2DMap(&s.bounds)
	if err != nil {
		return nil, errors.Wrap(err, "projecting voxel map")
	}
	margin := obstacles.Dilate(s.marginCells)
	outside := explored.Not()
	traversable, err := explored.AndNot(margin)
	if err != nil {
		return nil, err
	}
	frontier, err := traversable.Adjacent(outside, s.connectivity)
	if err != nil {
		return nil, err
	}
	if frontier, err = frontier.AndNot(margin); err != nil {
		return nil, err
	}
	s.logger.Debugw("frontier", "explored", explored.Count(), "obstacles", obstacles.Count(),
		"traversable", traversable.Count(), "frontier", frontier.Count())
	return &Frontier{
		Bounds:      s.bounds,
		Explored:    explored,
		Obstacles:   obstacles,
		Margin:      margin,
		Outside:     outside,
		Traversable: traversable,
		Frontier:    frontier,
	}, nil
}

// CellToWorld returns the world coordinates of a cell center.
func (s *Space) CellToWorld(c gridmap.Cell) (float64, float64) {
	return s.bounds.CellToWorld(c)
}

// WorldToCell returns the cell holding a world point and whether it lies inside the grid.
func (s *Space) WorldToCell(x, y float64) (gridmap.Cell, bool) {
	return s.bounds.WorldToCell(x, y)
}

// IsTraversable reports whether the robot may stand at the world point given the current map.
func (s *Space) IsTraversable(x, y float64) (bool, error) {
	f, err := s.GetFrontier()
	if err != nil {
		return false, err
	}
	return f.IsTraversable(x, y), nil
}

// Goal is a candidate navigation target.
type Goal struct {
	Cell gridmap.Cell
	X, Y float64
	// DistanceCM is the ranking distance from the start pose.
	DistanceCM float64
	// Theta faces from the start toward the goal.
	Theta float64
}

// Pose returns the goal as a planar pose.
func (g Goal) Pose() spatialmath.Pose2D {
	return spatialmath.NewPose2D(g.X, g.Y, g.Theta)
}

func (s *Space) newGoal(start spatialmath.Pose2D, c gridmap.Cell, dist float64) Goal {
	x, y := s.bounds.CellToWorld(c)
	theta := start.Theta
	if x != start.X || y != start.Y {
		theta = math.Atan2(y-start.Y, x-start.X)
	}
	return Goal{Cell: c, X: x, Y: y, DistanceCM: dist, Theta: spatialmath.NormalizeAngle(theta)}
}
