package cli

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/application/flow"
	"booking_automation/application/generator"
	"booking_automation/application/navigation"
	"booking_automation/application/overlay"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/browser"
	"booking_automation/infrastructure/browser/memory"
	"booking_automation/infrastructure/clock"
	"booking_automation/infrastructure/config"
	"booking_automation/infrastructure/storage"
)

// newClock is swapped for a fake clock in tests.
var newClock = clock.New

// flowConfig maps resolved configuration onto the flow's own settings
func flowConfig(cfg *config.Config) flow.Config {
	return flow.Config{
		BaseURL: cfg.BaseURL,
		Navigation: navigation.Config{
			Timeout:            cfg.Timeouts.Navigation(),
			NetworkIdleTimeout: cfg.Timeouts.NetworkIdle(),
			PrimaryWaitUntil:   entities.LoadState(cfg.Navigation.PrimaryWaitUntil),
			FallbackWaitUntil:  entities.LoadState(cfg.Navigation.FallbackWaitUntil),
			FallbackExtra:      cfg.Navigation.FallbackExtra,
			SettleInterval:     cfg.Navigation.SettleInterval,
		},
		Overlay: overlay.Config{
			TransitionPause: cfg.Overlay.TransitionPause,
			FinalPause:      cfg.Overlay.FinalPause,
		},
		PostActionPause: cfg.Interaction.PostActionPause,
		CookieWait:      cfg.Flow.CookieWait,
		SearchWait:      cfg.Flow.SearchWait,
		ContinueWait:    cfg.Flow.ContinueWait,
		ReturnDate:      cfg.Flow.ReturnDate,
	}
}

// newGenerator seeds each run differently; a configured seed makes runs reproducible.
func newGenerator(cfg *config.Config, clk interfaces.Clock, index int) *generator.Generator {
	seed := cfg.Generator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed + int64(index)))
	return generator.New(clk, rng, cfg.Generator.DepartureOffsetDays)
}

// openSession starts the configured browser driver
func openSession(cfg *config.Config, clk interfaces.Clock, logger logrus.FieldLogger) (interfaces.Session, error) {
	switch cfg.Browser.Driver {
	case config.DriverMemory:
		return memory.NewSession(memory.DemoSite(clk)), nil
	case config.DriverSelenium:
		return browser.NewSeleniumSession(cfg.Selenium, cfg.Browser, logger)
	default:
		state, err := storage.NewBrowserState(cfg.Browser.StorageState)
		if err != nil {
			return nil, err
		}
		return browser.NewPlaywrightSession(cfg.Browser, cfg.Timeouts.Action(), state, logger)
	}
}
