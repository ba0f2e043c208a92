// Package navigation loads pages with a single degraded retry.
package navigation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Config holds navigation timing
type Config struct {
	Timeout            time.Duration
	NetworkIdleTimeout time.Duration
	PrimaryWaitUntil   entities.LoadState
	FallbackWaitUntil  entities.LoadState
	FallbackExtra      time.Duration
	SettleInterval     time.Duration
}

// DefaultConfig returns the local-run defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:            30 * time.Second,
		NetworkIdleTimeout: 10 * time.Second,
		PrimaryWaitUntil:   entities.LoadStateLoad,
		FallbackWaitUntil:  entities.LoadStateDOMContentLoaded,
		FallbackExtra:      15 * time.Second,
		SettleInterval:     2 * time.Second,
	}
}

// Controller navigates a borrowed page
type Controller struct {
	page   interfaces.PageHandle
	clock  interfaces.Clock
	cfg    Config
	logger logrus.FieldLogger
}

// NewController creates a navigation controller.
func NewController(page interfaces.PageHandle, clock interfaces.Clock, cfg Config, logger logrus.FieldLogger) *Controller {
	return &Controller{
		page:   page,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// Navigate loads url waiting for the settled condition. If that fails it retries exactly
// once with a relaxed condition and a longer timeout, then pauses for client-side
// rendering. Both attempts failing returns *entities.NavigationError.
func (c *Controller) Navigate(ctx context.Context, url string) (entities.NavigationResult, error) {
	var result entities.NavigationResult
	log := c.logger.WithField("url", url)

	primary := entities.NavigationAttempt{
		URL:       url,
		WaitUntil: c.cfg.PrimaryWaitUntil,
		Timeout:   c.cfg.Timeout,
	}
	err := c.attempt(ctx, &primary)
	result.Attempts = append(result.Attempts, primary)

	if err != nil {
		log.WithError(err).Warn("Primary navigation failed, retrying with relaxed wait condition")

		fallback := entities.NavigationAttempt{
			URL:       url,
			WaitUntil: c.cfg.FallbackWaitUntil,
			Timeout:   c.cfg.Timeout + c.cfg.FallbackExtra,
			Fallback:  true,
		}
		err = c.attempt(ctx, &fallback)
		result.Attempts = append(result.Attempts, fallback)

		if err != nil {
			log.WithError(err).Error("Navigation failed")
			return result, &entities.NavigationError{
				URL:      url,
				Attempts: result.Attempts,
				LastErr:  err,
			}
		}
	}

	log.WithField("fallback", result.UsedFallback()).Info("Navigation completed")

	if err := c.clock.Sleep(ctx, c.cfg.SettleInterval); err != nil {
		log.WithError(err).Debug("Settle pause interrupted")
	}
	return result, nil
}

func (c *Controller) attempt(ctx context.Context, a *entities.NavigationAttempt) error {
	attemptCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	err := c.page.Navigate(attemptCtx, a.URL, a.WaitUntil, a.Timeout)
	if err != nil {
		a.Err = err.Error()
	}
	return err
}

// WaitForPageLoad waits for network idle within a bounded time. Pages whose analytics
// never go quiet are common, so a timeout is logged and ignored.
func (c *Controller) WaitForPageLoad(ctx context.Context) error {
	cond := entities.WaitCondition{State: entities.LoadStateNetworkIdle}
	if err := c.page.Wait(ctx, cond, c.cfg.NetworkIdleTimeout); err != nil {
		c.logger.WithError(err).Info("Network idle not reached, continuing")
	}
	return nil
}
