// Package browser adapts real browser engines to the page handle the booking flow drives.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/config"
	"booking_automation/infrastructure/storage"
)

var defaultLaunchArgs = []string{
	"--disable-popup-blocking",
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-infobars",
	"--disable-notifications",
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    *playwrightPage
	state   *storage.BrowserState
	logger  logrus.FieldLogger
}

// NewPlaywrightSession launches Chromium and opens the single page of a run.
// Cookies and local storage saved by the previous run are restored when state is set.
func NewPlaywrightSession(cfg config.BrowserConfig, actionTimeout time.Duration, state *storage.BrowserState, logger logrus.FieldLogger) (interfaces.Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	args := defaultLaunchArgs
	if len(cfg.Args) > 0 {
		args = cfg.Args
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
		Args:     args,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if cfg.UserAgent != "" {
		contextOptions.UserAgent = playwright.String(cfg.UserAgent)
	}
	if state != nil && state.Exists() {
		data, err := state.Load()
		if err == nil {
			var storageState playwright.StorageState
			if err := json.Unmarshal(data, &storageState); err == nil {
				contextOptions.StorageState = storageState.ToOptionalStorageState()
				logger.Debugf("Restored browser state from %s", state.Path())
			}
		}
	}

	bctx, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(actionTimeout.Milliseconds()))

	if len(cfg.Cookies) > 0 {
		if err := bctx.AddCookies(toPlaywrightCookies(cfg.Cookies)); err != nil {
			logger.Warnf("Failed to add configured cookies: %v", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})

	return &playwrightSession{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    &playwrightPage{page: page},
		state:   state,
		logger:  logger,
	}, nil
}

func toPlaywrightCookies(cookies []config.CookieConfig) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		out = append(out, playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String(c.Domain),
			Path:   playwright.String(path),
		})
	}
	return out
}

func (s *playwrightSession) Page() interfaces.PageHandle {
	return s.page
}

// Close saves browser state and shuts everything down. Errors from targets that are
// already closed are ignored.
func (s *playwrightSession) Close() error {
	var errs []error

	if s.context != nil {
		if s.state != nil {
			if _, err := s.context.StorageState(s.state.Path()); err != nil && !entities.IsClosedError(err) {
				errs = append(errs, fmt.Errorf("failed to save browser state: %w", err))
			}
		}
		if err := s.context.Close(); err != nil && !entities.IsClosedError(err) {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
		s.context = nil
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !entities.IsClosedError(err) {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}

	return errors.Join(errs...)
}

type playwrightPage struct {
	page playwright.Page
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, waitUntil entities.LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state := playwright.WaitUntilState(waitUntil)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &state,
		Timeout:   ms(timeout),
	})
	return err
}

func (p *playwrightPage) locator(strategy entities.SelectorStrategy) (playwright.Locator, error) {
	switch strategy.Kind {
	case entities.StrategyRole:
		opts := playwright.PageGetByRoleOptions{}
		if strategy.Pattern != nil {
			opts.Name = strategy.Pattern
		}
		return p.page.GetByRole(playwright.AriaRole(strategy.Role), opts), nil
	case entities.StrategyPlaceholder:
		return p.page.GetByPlaceholder(strategy.Pattern), nil
	case entities.StrategyLabel:
		return p.page.GetByLabel(strategy.Pattern), nil
	case entities.StrategyText:
		return p.page.GetByText(strategy.Pattern), nil
	case entities.StrategyStructure:
		return p.page.Locator(strategy.Selector), nil
	default:
		return nil, fmt.Errorf("unsupported strategy kind %q", strategy.Kind)
	}
}

func (p *playwrightPage) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := p.locator(strategy)
	if err != nil {
		return nil, err
	}
	return elements(loc, strategy.String())
}

// scopedLocator mirrors playwrightPage.locator under an element.
func scopedLocator(scope playwright.Locator, strategy entities.SelectorStrategy) (playwright.Locator, error) {
	switch strategy.Kind {
	case entities.StrategyRole:
		opts := playwright.LocatorGetByRoleOptions{}
		if strategy.Pattern != nil {
			opts.Name = strategy.Pattern
		}
		return scope.GetByRole(playwright.AriaRole(strategy.Role), opts), nil
	case entities.StrategyPlaceholder:
		return scope.GetByPlaceholder(strategy.Pattern), nil
	case entities.StrategyLabel:
		return scope.GetByLabel(strategy.Pattern), nil
	case entities.StrategyText:
		return scope.GetByText(strategy.Pattern), nil
	case entities.StrategyStructure:
		return scope.Locator(strategy.Selector), nil
	default:
		return nil, fmt.Errorf("unsupported strategy kind %q", strategy.Kind)
	}
}

func elements(loc playwright.Locator, desc string) ([]interfaces.Element, error) {
	all, err := loc.All()
	if err != nil {
		return nil, err
	}

	out := make([]interfaces.Element, 0, len(all))
	for i, l := range all {
		out = append(out, &playwrightElement{
			locator: l,
			desc:    fmt.Sprintf("%s[%d]", desc, i),
		})
	}
	return out, nil
}

func (p *playwrightPage) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Keyboard().Press(key)
}

func (p *playwrightPage) Wait(ctx context.Context, cond entities.WaitCondition, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cond.Target != nil {
		loc, err := p.locator(*cond.Target)
		if err != nil {
			return err
		}
		return loc.First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: ms(timeout),
		})
	}
	state := playwright.LoadState(cond.State)
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &state,
		Timeout: ms(timeout),
	})
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

type playwrightElement struct {
	locator playwright.Locator
	desc    string
}

func (e *playwrightElement) IsVisible(ctx context.Context) (bool, error) {
	return e.locator.IsVisible()
}

func (e *playwrightElement) IsEnabled(ctx context.Context) (bool, error) {
	return e.locator.IsEnabled()
}

func (e *playwrightElement) Click(ctx context.Context, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator.Click(playwright.LocatorClickOptions{Force: playwright.Bool(opts.Force)})
}

func (e *playwrightElement) Fill(ctx context.Context, text string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator.Fill(text, playwright.LocatorFillOptions{Force: playwright.Bool(opts.Force)})
}

// SelectOption matches by option value first and by visible label second.
func (e *playwrightElement) SelectOption(ctx context.Context, value string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values := []string{value}
	options := playwright.LocatorSelectOptionOptions{Force: playwright.Bool(opts.Force)}
	selected, err := e.locator.SelectOption(playwright.SelectOptionValues{Values: &values}, options)
	if err == nil && len(selected) > 0 {
		return nil
	}
	_, err = e.locator.SelectOption(playwright.SelectOptionValues{Labels: &values}, options)
	return err
}

func (e *playwrightElement) Press(ctx context.Context, key string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator.Press(key)
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	return e.locator.TextContent()
}

func (e *playwrightElement) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := scopedLocator(e.locator, strategy)
	if err != nil {
		return nil, err
	}
	return elements(loc, e.desc+" >> "+strategy.String())
}

func (e *playwrightElement) Value(ctx context.Context) (string, error) {
	return e.locator.InputValue()
}

func (e *playwrightElement) String() string {
	return e.desc
}

var (
	_ interfaces.Session    = (*playwrightSession)(nil)
	_ interfaces.PageHandle = (*playwrightPage)(nil)
	_ interfaces.Element    = (*playwrightElement)(nil)
)
