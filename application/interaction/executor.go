package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Executor performs exactly one attempt of an action and classifies the result.
// Retrying is left to the stage that owns the action.
type Executor struct {
	page   interfaces.PageHandle
	clock  interfaces.Clock
	logger logrus.FieldLogger
	// pause lets the page settle after a successful action
	pause time.Duration
	guard interfaces.ActionGuard
}

// NewExecutor creates an executor over a borrowed page.
func NewExecutor(page interfaces.PageHandle, clock interfaces.Clock, logger logrus.FieldLogger, postActionPause time.Duration) *Executor {
	return &Executor{
		page:   page,
		clock:  clock,
		logger: logger,
		pause:  postActionPause,
	}
}

// SetGuard installs a guard consulted before every action. nil removes it.
func (e *Executor) SetGuard(g interfaces.ActionGuard) {
	e.guard = g
}

// Act runs action against el. A nil el is only valid for key presses, which then go
// to the page keyboard. Failures are Skipped unless opts.Required, then Failed.
func (e *Executor) Act(ctx context.Context, el interfaces.Element, action entities.Action, opts entities.ActOptions) entities.ActionOutcome {
	outcome := entities.ActionOutcome{Action: action, Target: "page"}
	if el != nil {
		outcome.Target = el.String()
	}
	log := e.logger.WithFields(logrus.Fields{
		"action": action.String(),
		"target": outcome.Target,
		"force":  opts.Force,
	})

	err := e.vet(ctx, el, action)
	if err == nil {
		err = e.perform(ctx, el, action, opts)
	}
	if err != nil {
		outcome.Err = err
		if opts.Required {
			outcome.Status = entities.OutcomeFailed
			log.WithError(err).Warn("Required action failed")
		} else {
			outcome.Status = entities.OutcomeSkipped
			log.WithError(err).Info("Optional action skipped")
		}
		return outcome
	}

	outcome.Status = entities.OutcomeDone
	log.Debug("Action done")

	if err := e.clock.Sleep(ctx, e.pause); err != nil {
		log.WithError(err).Debug("Post-action pause interrupted")
	}
	return outcome
}

func (e *Executor) vet(ctx context.Context, el interfaces.Element, action entities.Action) error {
	if e.guard == nil {
		return nil
	}
	var text string
	if el != nil {
		text, _ = el.Text(ctx)
	}
	return e.guard.Check(ctx, e.page.URL(), text, action)
}

func (e *Executor) perform(ctx context.Context, el interfaces.Element, action entities.Action, opts entities.ActOptions) error {
	if action.Type == entities.ActionPressKey && el == nil {
		return e.page.Press(ctx, action.Key)
	}
	if el == nil {
		return entities.ErrNoElement
	}

	switch action.Type {
	case entities.ActionClick:
		return el.Click(ctx, opts)
	case entities.ActionFill:
		return el.Fill(ctx, action.Text, opts)
	case entities.ActionSelectOption:
		return el.SelectOption(ctx, action.Value, opts)
	case entities.ActionPressKey:
		return el.Press(ctx, action.Key, opts)
	default:
		return fmt.Errorf("unknown action: %s", action.Type)
	}
}
