package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/voxelnav/config"
	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/voxelmap"
)

// RunOptions configures one exploration run.
type RunOptions struct {
	// ExploreIter is the number of map-plan-move steps allowed. Zero explores nothing.
	ExploreIter int
	// TaskGoal is the category to look for; empty keeps the agent's current goal.
	TaskGoal string
	// GoHomeAtEnd returns to the first pose of the episode after exploring.
	GoHomeAtEnd bool
	// Rate caps steps per second; zero or less runs unthrottled.
	Rate float64
}

// RunOptionsFromParameters returns the run options of the agent and task sections.
func RunOptionsFromParameters(params *config.Parameters) RunOptions {
	object, _ := params.TaskGoals()
	return RunOptions{
		ExploreIter: params.Agent.ExploreIter,
		TaskGoal:    object,
		GoHomeAtEnd: params.Agent.GoHomeAtEnd,
		Rate:        params.Agent.RateHz,
	}
}

// ExplorationResult summarizes a run. Not finding the goal is a normal outcome reported through
// State, not an error.
type ExplorationResult struct {
	Episode uuid.UUID
	// State is GoalFound or Exhausted.
	State   navspace.State
	History []navspace.State
	Reason  string
	// Iterations counts the map-plan-move steps taken.
	Iterations   int
	PlanFailures int
	// Instance is the goal instance when State is GoalFound.
	Instance     *voxelmap.Instance
	ReachedGoal  bool
	ReturnedHome bool
	Dropped      int
	SnapshotPath string
}

func (r *ExplorationResult) String() string {
	return fmt.Sprintf("episode %s: %v after %d iterations (%s)", r.Episode, r.State, r.Iterations, r.Reason)
}

// RunExploration drives the exploration state machine until the goal category is located, no
// frontier remains, or the step budget is spent. The result is returned alongside any error so
// callers can inspect a partially run episode.
func (a *Agent) RunExploration(ctx context.Context, opts RunOptions) (*ExplorationResult, error) {
	if opts.ExploreIter < 0 {
		return nil, errors.Errorf("explore_iter must not be negative, got %d", opts.ExploreIter)
	}
	if opts.TaskGoal != "" {
		if err := a.SetGoal(opts.TaskGoal); err != nil {
			return nil, err
		}
	}
	machine := navspace.NewMachine()
	res := &ExplorationResult{Episode: a.episode}
	finish := func(err error) (*ExplorationResult, error) {
		res.State = machine.State()
		res.History = machine.History()
		res.Dropped = a.dropped
		return res, err
	}

	var period time.Duration
	if opts.Rate > 0 {
		period = time.Duration(float64(time.Second) / opts.Rate)
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if inst := a.goalInstance(); inst != nil {
			res.Instance = inst
			res.Reason = fmt.Sprintf("found %s instance %d", a.goalName, inst.ID)
			if err := machine.Transition(navspace.GoalFound); err != nil {
				return finish(err)
			}
			break
		}
		if res.Iterations >= opts.ExploreIter {
			res.Reason = fmt.Sprintf("exploration budget of %d steps spent", opts.ExploreIter)
			if err := machine.Transition(navspace.Exhausted); err != nil {
				return finish(err)
			}
			break
		}
		if res.Iterations > 0 && period > 0 && !goutils.SelectContextOrWait(ctx, period) {
			return finish(ctx.Err())
		}
		res.Iterations++

		if _, err := a.Update(ctx); err != nil {
			return finish(err)
		}
		if a.goalInstance() != nil {
			continue
		}
		exhausted, err := a.step(ctx, machine, res)
		if err != nil {
			return finish(err)
		}
		if exhausted {
			break
		}
	}

	if machine.State() == navspace.GoalFound {
		reached, err := a.navigateToInstance(ctx, res.Instance)
		if err != nil {
			return finish(err)
		}
		res.ReachedGoal = reached
	}
	if opts.GoHomeAtEnd {
		home, err := a.goHome(ctx)
		if err != nil {
			return finish(err)
		}
		res.ReturnedHome = home
	}
	if path := a.params.Agent.SnapshotPath; path != "" {
		if err := a.SaveSnapshot(path); err != nil {
			return finish(err)
		}
		res.SnapshotPath = path
	}
	a.logger.Infow("exploration finished", "state", machine.State(), "iterations", res.Iterations,
		"reason", res.Reason)
	return finish(nil)
}

// step selects a frontier, plans to it, and moves there. It reports true once nothing is left to
// explore, with the machine in Exhausted.
func (a *Agent) step(ctx context.Context, machine *navspace.Machine, res *ExplorationResult) (bool, error) {
	pose, ok := a.tracker.Last()
	if !ok {
		// every frame so far was dropped; try again next step
		return false, nil
	}
	f, err := a.space.GetFrontier()
	if err != nil {
		return false, err
	}
	if !f.Frontier.Any() {
		res.Reason = "no frontier remains"
		return true, machine.Transition(navspace.Exhausted)
	}
	if err := machine.Transition(navspace.FrontierSelected); err != nil {
		return false, err
	}
	if err := machine.Transition(navspace.Planning); err != nil {
		return false, err
	}
	plan := motionplan.PlanToFrontier(ctx, pose, a.planner, a.space, a.params.Planner.TryToPlanIter, a.logger)
	if !plan.Success {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		res.PlanFailures++
		if err := machine.Transition(navspace.PlanFailed); err != nil {
			return false, err
		}
		a.logger.Warnw("planning to frontier failed", "pose", pose, "reason", plan.Reason)
		if errors.Is(plan.Err, motionplan.ErrNoFrontier) {
			res.Reason = "no reachable frontier remains"
			return true, machine.Transition(navspace.Exhausted)
		}
		return false, nil
	}
	if err := machine.Transition(navspace.PlanFound); err != nil {
		return false, err
	}
	if err := machine.Transition(navspace.Navigating); err != nil {
		return false, err
	}
	if err := a.navigate(ctx, plan.Path); err != nil {
		return false, err
	}
	return false, machine.Transition(navspace.Arrived)
}

func (a *Agent) goalInstance() *voxelmap.Instance {
	if a.goalID < 0 {
		return nil
	}
	found := a.voxelMap.Instances(int32(a.goalID))
	if len(found) == 0 {
		return nil
	}
	// the most observed instance is the least likely to be noise
	best := found[0]
	for _, inst := range found[1:] {
		if inst.PointCount > best.PointCount {
			best = inst
		}
	}
	return best
}

func (a *Agent) navigateToInstance(ctx context.Context, inst *voxelmap.Instance) (bool, error) {
	pose, ok := a.tracker.Last()
	if !ok {
		return false, nil
	}
	goal, err := a.space.GoalForInstance(pose, inst)
	if err != nil {
		a.logger.Warnw("no goal near instance", "instance", inst.ID, "error", err)
		return false, nil
	}
	return a.planAndNavigate(ctx, pose, goal)
}

func (a *Agent) goHome(ctx context.Context) (bool, error) {
	if a.moved {
		if _, err := a.Update(ctx); err != nil {
			return false, err
		}
	}
	pose, ok := a.tracker.Last()
	start, started := a.tracker.Start()
	if !ok || !started {
		return false, nil
	}
	goal, err := a.space.GoalNear(pose, start.X, start.Y)
	if err != nil {
		a.logger.Warnw("no goal near episode start", "start", start, "error", err)
		return false, nil
	}
	goal.Theta = start.Theta
	return a.planAndNavigate(ctx, pose, goal)
}

func (a *Agent) planAndNavigate(ctx context.Context, pose spatialmath.Pose2D, goal navspace.Goal) (bool, error) {
	plan := motionplan.PlanToGoal(ctx, pose, goal, a.planner, a.space, a.logger)
	if !plan.Success {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		a.logger.Warnw("planning to goal failed", "goal", goal.Cell, "reason", plan.Reason)
		return false, nil
	}
	if err := a.navigate(ctx, plan.Path); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Agent) navigate(ctx context.Context, path []spatialmath.Pose2D) error {
	if err := a.robot.Navigate(ctx, path); err != nil {
		goutils.UncheckedError(a.robot.Stop(context.Background()))
		return errors.Wrap(err, "navigating")
	}
	a.moved = true
	return nil
}

// RunBatch runs one episode per agent in parallel. Agents share nothing, so the only coordination
// is cancellation: the first error stops the others. Results are indexed like agents.
func RunBatch(ctx context.Context, agents []*Agent, opts RunOptions) ([]*ExplorationResult, error) {
	results := make([]*ExplorationResult, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range agents {
		g.Go(func() error {
			res, err := a.RunExploration(gctx, opts)
			results[i] = res
			if err != nil {
				return errors.Wrapf(err, "environment %d", i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
