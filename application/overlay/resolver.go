// Package overlay clears popups that cover the booking form before any interaction.
package overlay

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/application/locator"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Config holds the cascade pauses
type Config struct {
	TransitionPause time.Duration
	FinalPause      time.Duration
}

// DefaultConfig returns the pauses the booking site needs for its fade-out animations.
func DefaultConfig() Config {
	return Config{
		TransitionPause: 500 * time.Millisecond,
		FinalPause:      time.Second,
	}
}

// Resolver runs the overlay cascade. It never fails; overlays that resist every
// dismissal are abandoned for the pass.
type Resolver struct {
	page       interfaces.PageHandle
	locator    *locator.Resolver
	clock      interfaces.Clock
	cfg        Config
	categories []entities.OverlayCategory
	logger     logrus.FieldLogger
}

// NewResolver creates a cascade over categories, evaluated by ascending priority.
// A nil categories slice uses DefaultCategories.
func NewResolver(page interfaces.PageHandle, clock interfaces.Clock, cfg Config, categories []entities.OverlayCategory, logger logrus.FieldLogger) *Resolver {
	if categories == nil {
		categories = DefaultCategories()
	}
	sorted := make([]entities.OverlayCategory, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return &Resolver{
		page:       page,
		locator:    locator.NewResolver(page, logger),
		clock:      clock,
		cfg:        cfg,
		categories: sorted,
		logger:     logger,
	}
}

// Resolve runs one pass of the cascade. On a page without overlays it touches nothing.
func (r *Resolver) Resolve(ctx context.Context) entities.OverlayPass {
	return r.ResolveExcept(ctx)
}

// ResolveExcept runs one pass skipping the named categories, for stages that handle
// one overlay family themselves.
func (r *Resolver) ResolveExcept(ctx context.Context, skip ...string) entities.OverlayPass {
	var pass entities.OverlayPass

	for _, cat := range r.categories {
		if ctx.Err() != nil {
			break
		}
		if slices.Contains(skip, cat.Name) {
			continue
		}
		overlay, ok := r.detect(ctx, cat)
		if !ok {
			continue
		}

		log := r.logger.WithField("overlay", cat.Name)
		log.Debug("Overlay detected")

		if r.dismiss(ctx, cat, overlay) {
			log.Info("Overlay dismissed")
			pass.Dismissed = append(pass.Dismissed, cat.Name)
		} else {
			log.Warn("Overlay persisted, continuing without it")
			pass.Persisting = append(pass.Persisting, cat.Name)
		}
	}

	if pass.Attempted() {
		r.pause(ctx, r.cfg.FinalPause)
	}
	return pass
}

func (r *Resolver) detect(ctx context.Context, cat entities.OverlayCategory) (interfaces.Element, bool) {
	return r.locator.Resolve(ctx, entities.Field(cat.Name, cat.Detection...))
}

// dismiss tries each dismissal once, in order, and stops as soon as the overlay is gone.
func (r *Resolver) dismiss(ctx context.Context, cat entities.OverlayCategory, overlay interfaces.Element) bool {
	for _, d := range cat.Dismissals {
		if !r.attempt(ctx, d, overlay) {
			continue
		}
		r.pause(ctx, r.cfg.TransitionPause)

		current, present := r.detect(ctx, cat)
		if !present {
			return true
		}
		overlay = current
	}
	return false
}

// attempt reports whether the dismissal was actually issued.
func (r *Resolver) attempt(ctx context.Context, d entities.Dismissal, overlay interfaces.Element) bool {
	log := r.logger.WithField("dismissal", d.Kind)
	force := entities.ActOptions{Force: true}

	var err error
	switch d.Kind {
	case entities.DismissCloseButton:
		closeField := entities.Field("close", d.Targets...)
		var button interfaces.Element
		var ok bool
		if d.Within {
			button, ok = r.locator.ResolveWithin(ctx, overlay, closeField)
		} else {
			button, ok = r.locator.Resolve(ctx, closeField)
		}
		if !ok {
			log.Debug("No close button visible")
			return false
		}
		err = button.Click(ctx, force)
	case entities.DismissEscapeKey:
		err = r.page.Press(ctx, "Escape")
	case entities.DismissClickSelf:
		err = overlay.Click(ctx, force)
	default:
		log.Warn("Unknown dismissal kind")
		return false
	}

	if err != nil {
		log.WithError(err).Debug("Dismissal failed")
		return false
	}
	return true
}

func (r *Resolver) pause(ctx context.Context, d time.Duration) {
	if err := r.clock.Sleep(ctx, d); err != nil {
		r.logger.WithError(err).Debug("Overlay pause interrupted")
	}
}
