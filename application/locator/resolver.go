package locator

import (
	"context"

	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Resolver finds the element behind a logical field by trying its strategies in order.
type Resolver struct {
	page   interfaces.PageHandle
	logger logrus.FieldLogger
}

// NewResolver creates a resolver over a borrowed page.
func NewResolver(page interfaces.PageHandle, logger logrus.FieldLogger) *Resolver {
	return &Resolver{page: page, logger: logger}
}

// Resolve returns the first strategy's indexed visible candidate, trying strategies in order.
// A false result means the field is absent in this UI variant; it is not an error.
func (r *Resolver) Resolve(ctx context.Context, field entities.FieldDescriptor) (interfaces.Element, bool) {
	return r.resolve(ctx, r.page.Locate, field)
}

// ResolveWithin resolves field among the elements nested inside scope.
func (r *Resolver) ResolveWithin(ctx context.Context, scope interfaces.Element, field entities.FieldDescriptor) (interfaces.Element, bool) {
	return r.resolve(ctx, scope.Locate, field)
}

type locateFunc func(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error)

func (r *Resolver) resolve(ctx context.Context, locate locateFunc, field entities.FieldDescriptor) (interfaces.Element, bool) {
	log := r.logger.WithField("field", field.Name)
	if err := field.Validate(); err != nil {
		log.WithError(err).Warn("Invalid field descriptor")
		return nil, false
	}

	for _, strategy := range field.Strategies {
		if ctx.Err() != nil {
			return nil, false
		}
		candidates, err := locate(ctx, strategy)
		if err != nil {
			log.WithError(err).Debugf("Strategy %s failed", strategy)
			continue
		}

		visible := 0
		for _, c := range candidates {
			ok, err := c.IsVisible(ctx)
			if err != nil || !ok {
				continue
			}
			if visible == strategy.Index {
				log.Debugf("Resolved via %s -> %s", strategy, c)
				return c, true
			}
			visible++
		}
	}

	log.Debug("No strategy matched")
	return nil, false
}

// Visible reports whether the field currently resolves.
func (r *Resolver) Visible(ctx context.Context, field entities.FieldDescriptor) bool {
	_, ok := r.Resolve(ctx, field)
	return ok
}

// Clickable reports whether the field resolves to an enabled element.
func (r *Resolver) Clickable(ctx context.Context, field entities.FieldDescriptor) bool {
	el, ok := r.Resolve(ctx, field)
	if !ok {
		return false
	}
	enabled, err := el.IsEnabled(ctx)
	return err == nil && enabled
}
