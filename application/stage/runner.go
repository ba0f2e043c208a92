// Package stage drives one booking step through overlay clearing, resolution and action.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/application/generator"
	"booking_automation/application/interaction"
	"booking_automation/application/locator"
	"booking_automation/application/overlay"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Deps are the borrowed collaborators a Runner drives
type Deps struct {
	Page      interfaces.PageHandle
	Overlays  *overlay.Resolver
	Locator   *locator.Resolver
	Executor  *interaction.Executor
	Generator *generator.Generator
	Clock     interfaces.Clock
	Events    interfaces.EventSink
	Logger    logrus.FieldLogger
}

// Runner executes stage specs for a single run
type Runner struct {
	deps  Deps
	runID string
	data  entities.BookingData
}

// NewRunner creates a runner bound to one run's booking data.
func NewRunner(deps Deps, runID string, data entities.BookingData) *Runner {
	if deps.Events == nil {
		deps.Events = discard{}
	}
	return &Runner{deps: deps, runID: runID, data: data}
}

type discard struct{}

func (discard) Emit(entities.StageEvent) {}

// Run drives spec to a terminal state. The returned error is non-nil only when a
// required stage could not be confirmed, in which case it is *entities.ActionFailure.
func (r *Runner) Run(ctx context.Context, spec Spec) (entities.StageResult, error) {
	start := r.deps.Clock.Now()
	res := entities.StageResult{
		Stage:    spec.Name,
		State:    entities.StateIdle,
		Required: spec.Required,
	}
	log := r.deps.Logger.WithField("stage", spec.Name)

	r.transition(&res, entities.StateOverlaysClearing, "")
	pass := r.deps.Overlays.ResolveExcept(ctx, spec.ExcludeOverlays...)
	if len(pass.Persisting) > 0 {
		log.WithField("overlays", pass.Persisting).Warn("Overlays persisted")
	}

	r.transition(&res, entities.StateResolving, "")
	var target interfaces.Element
	if spec.Target != nil {
		r.await(ctx, *spec.Target, spec.AwaitTimeout)
		el, ok := r.deps.Locator.Resolve(ctx, *spec.Target)
		if !ok {
			log.WithField("field", spec.Target.Name).Info("Target not found")
			err := r.miss(ctx, spec, &res, fmt.Errorf("%s: %w", spec.Target.Name, entities.ErrElementNotFound))
			res.Duration = r.deps.Clock.Now().Sub(start)
			return res, err
		}
		target = el
	}

	r.transition(&res, entities.StateActing, "")
	outcomes, err := r.runSteps(ctx, spec.Steps, target, spec.Required)
	res.Outcomes = append(res.Outcomes, outcomes...)
	if err == nil && spec.Readback != nil {
		err = r.readBack(ctx, spec, target, &res)
	}
	if err == nil {
		r.confirm(spec, &res, entities.ViaPrimary)
	} else {
		log.WithError(err).Info("Stage steps incomplete")
		err = r.miss(ctx, spec, &res, err)
	}

	res.Duration = r.deps.Clock.Now().Sub(start)
	return res, err
}

func (r *Runner) confirm(spec Spec, res *entities.StageResult, via string) {
	res.Via = via
	if res.Value == "" && spec.Input != nil {
		res.Value = spec.Input(r.data)
	}
	r.transition(res, entities.StateConfirmed, via)
}

// readBack records the value the target shows once the steps are done.
func (r *Runner) readBack(ctx context.Context, spec Spec, target interfaces.Element, res *entities.StageResult) error {
	if target == nil {
		return fmt.Errorf("%s: nothing to read back: %w", spec.Name, entities.ErrUnconfirmed)
	}
	shown, err := target.Value(ctx)
	if err != nil || strings.TrimSpace(shown) == "" {
		shown, err = target.Text(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", target, entities.ErrUnconfirmed, err)
		}
	}
	value, err := spec.Readback(strings.TrimSpace(shown))
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	res.Value = value
	return nil
}

// miss decides the terminal state after a resolution miss or a failed mandatory step.
func (r *Runner) miss(ctx context.Context, spec Spec, res *entities.StageResult, cause error) error {
	if spec.Required {
		action := spec.firstAction()
		if len(spec.Fallback) > 0 {
			if res.State != entities.StateActing {
				r.transition(res, entities.StateActing, "fallback")
			}
			outcomes, err := r.runSteps(ctx, spec.Fallback, nil, true)
			res.Outcomes = append(res.Outcomes, outcomes...)
			if err == nil {
				r.confirm(spec, res, entities.ViaFallback)
				return nil
			}
			cause = errors.Join(cause, err)
			action = spec.Fallback[0].Action
		}

		failure := &entities.ActionFailure{Stage: spec.Name, Action: action, Cause: cause}
		res.Err = failure
		res.Error = failure.Error()
		r.transition(res, entities.StateSkipped, cause.Error())
		return failure
	}

	res.Err = cause
	res.Error = cause.Error()
	if spec.Simulate != nil {
		res.Value = spec.Simulate(r.deps.Generator)
		r.transition(res, entities.StateSimulated, cause.Error())
		return nil
	}
	r.transition(res, entities.StateSkipped, cause.Error())
	return nil
}

// runSteps executes steps in order. Optional steps never fail the sequence.
func (r *Runner) runSteps(ctx context.Context, steps []Step, target interfaces.Element, required bool) ([]entities.ActionOutcome, error) {
	var outcomes []entities.ActionOutcome
	for _, st := range steps {
		out, err := r.runStep(ctx, st, target, required, true)
		if out != nil {
			outcomes = append(outcomes, *out)
		}
		if err != nil && !st.Optional {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (r *Runner) runStep(ctx context.Context, st Step, target interfaces.Element, required, allowRecovery bool) (*entities.ActionOutcome, error) {
	el := target
	switch {
	case st.PageLevel:
		el = nil
	case st.Field != nil:
		r.await(ctx, *st.Field, st.Await)
		found, ok := r.deps.Locator.Resolve(ctx, *st.Field)
		if !ok {
			if allowRecovery && len(st.OnMiss) > 0 {
				r.deps.Logger.WithField("field", st.Field.Name).Debug("Step target missing, running recovery")
				for _, m := range st.OnMiss {
					_, _ = r.runStep(ctx, m, target, false, false)
				}
				return r.runStep(ctx, st, target, required, false)
			}
			return nil, fmt.Errorf("%s: %w", st.Field.Name, entities.ErrElementNotFound)
		}
		el = found
	case el == nil:
		return nil, entities.ErrNoElement
	}

	opts := entities.ActOptions{Force: st.Force, Required: required && !st.Optional}
	out := r.deps.Executor.Act(ctx, el, st.resolvedAction(r.data), opts)
	if !out.Done() {
		return &out, out.Err
	}
	return &out, nil
}

func (r *Runner) await(ctx context.Context, fd entities.FieldDescriptor, d time.Duration) {
	if d <= 0 || len(fd.Strategies) == 0 {
		return
	}
	cond := entities.WaitCondition{Target: &fd.Strategies[0]}
	if err := r.deps.Page.Wait(ctx, cond, d); err != nil {
		r.deps.Logger.WithField("field", fd.Name).WithError(err).Debug("Wait for field timed out, continuing")
	}
}

func (r *Runner) transition(res *entities.StageResult, to entities.StageState, detail string) {
	from := res.State
	res.State = to
	r.deps.Events.Emit(entities.StageEvent{
		RunID:  r.runID,
		Stage:  res.Stage,
		From:   from,
		To:     to,
		Value:  res.Value,
		Detail: detail,
		At:     r.deps.Clock.Now(),
	})
}
