package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/config"
)

const (
	defaultDriverPort = 9515
	portSearchSpan    = 100
)

// driverPorts tracks the ChromeDriver ports held by open sessions in this process,
// so parallel runs each get their own driver.
var driverPorts = struct {
	sync.Mutex
	held map[int]bool
}{held: make(map[int]bool)}

// reservePort claims the first port at or above base that no session holds and
// nothing else is listening on.
func reservePort(base int) (int, error) {
	driverPorts.Lock()
	defer driverPorts.Unlock()
	for port := base; port < base+portSearchSpan; port++ {
		if driverPorts.held[port] || !portFree(port) {
			continue
		}
		driverPorts.held[port] = true
		return port, nil
	}
	return 0, fmt.Errorf("no free port in [%d, %d)", base, base+portSearchSpan)
}

func releasePort(port int) {
	driverPorts.Lock()
	defer driverPorts.Unlock()
	delete(driverPorts.held, port)
}

func portFree(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

type seleniumSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
	port    int
	page    *seleniumPage
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// chromeArgs builds the Chrome command line for a WebDriver session
func chromeArgs(cfg config.BrowserConfig) []string {
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		fmt.Sprintf("--window-size=%d,%d", cfg.ViewportWidth, cfg.ViewportHeight),
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent="+cfg.UserAgent)
	}
	return append(args, cfg.Args...)
}

// NewSeleniumSession starts ChromeDriver and opens a WebDriver session
func NewSeleniumSession(cfg config.SeleniumConfig, browserCfg config.BrowserConfig, logger logrus.FieldLogger) (interfaces.Session, error) {
	driverPath, err := findChromeDriver(cfg.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	base := cfg.Port
	if base == 0 {
		base = defaultDriverPort
	}
	port, err := reservePort(base)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}
	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		releasePort(port)
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}
	if port != base {
		logger.Infof("ChromeDriver port %d busy, using %d", base, port)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	chromeCaps := chrome.Capabilities{Args: chromeArgs(browserCfg)}
	if binary := findChromeBinary(cfg.ChromeBinary); binary != "" {
		logger.Infof("Using Chrome binary at: %s", binary)
		chromeCaps.Path = binary
	}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		releasePort(port)
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &seleniumSession{
		wd:      wd,
		service: service,
		port:    port,
		page:    &seleniumPage{wd: wd},
	}, nil
}

func (s *seleniumSession) Page() interfaces.PageHandle {
	return s.page
}

// Close - ends the WebDriver session and stops ChromeDriver
func (s *seleniumSession) Close() error {
	var errs []error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil && !entities.IsClosedError(err) {
			errs = append(errs, fmt.Errorf("failed to quit webdriver: %w", err))
		}
		s.wd = nil
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop chromedriver: %w", err))
		}
		s.service = nil
		releasePort(s.port)
	}
	return errors.Join(errs...)
}

type seleniumPage struct {
	wd selenium.WebDriver
}

func (p *seleniumPage) Navigate(ctx context.Context, url string, waitUntil entities.LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.wd.SetPageLoadTimeout(timeout); err != nil {
		return err
	}
	if err := p.wd.Get(url); err != nil {
		return err
	}
	return p.waitReady(waitUntil, timeout)
}

// waitReady approximates load states with document.readyState; WebDriver has no network idle signal.
func (p *seleniumPage) waitReady(state entities.LoadState, timeout time.Duration) error {
	accepted := []string{"complete"}
	switch state {
	case entities.LoadStateCommit:
		return nil
	case entities.LoadStateDOMContentLoaded:
		accepted = append(accepted, "interactive")
	}

	return p.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		res, err := wd.ExecuteScript("return document.readyState;", nil)
		if err != nil {
			return false, nil
		}
		ready, _ := res.(string)
		for _, a := range accepted {
			if ready == a {
				return true, nil
			}
		}
		return false, nil
	}, timeout)
}

func (p *seleniumPage) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := translate(strategy)
	if err != nil {
		return nil, err
	}
	return locate(p.wd, p.wd, q, strategy, strategy.String())
}

// finder is the lookup shared by the driver and its elements
type finder interface {
	FindElements(by, value string) ([]selenium.WebElement, error)
}

func locate(wd selenium.WebDriver, root finder, q query, strategy entities.SelectorStrategy, desc string) ([]interfaces.Element, error) {
	found, err := root.FindElements(q.by, q.value)
	if err != nil {
		return nil, err
	}

	var matched []selenium.WebElement
	for _, el := range found {
		if q.hasText != "" {
			text, _ := el.Text()
			if !strings.Contains(strings.ToLower(text), strings.ToLower(q.hasText)) {
				continue
			}
		}
		if q.source != sourceNone && !strategy.Matches(matchText(el, q.source)) {
			continue
		}
		switch {
		case q.source == sourceLabel:
			matched = append(matched, labelledControl(wd, el))
		case q.then != "":
			next, err := el.FindElements(selenium.ByXPATH, q.then)
			if err != nil {
				continue
			}
			matched = append(matched, next...)
		default:
			matched = append(matched, el)
		}
	}

	out := make([]interfaces.Element, 0, len(matched))
	for i, el := range matched {
		out = append(out, &seleniumElement{
			wd:   wd,
			el:   el,
			desc: fmt.Sprintf("%s[%d]", desc, i),
		})
	}
	return out, nil
}

func matchText(el selenium.WebElement, source matchSource) string {
	switch source {
	case sourcePlaceholder:
		v, _ := el.GetAttribute("placeholder")
		return v
	case sourceLabel:
		if tag, _ := el.TagName(); strings.EqualFold(tag, "label") {
			v, _ := el.Text()
			return v
		}
		v, _ := el.GetAttribute("aria-label")
		return v
	case sourceName:
		if v, _ := el.GetAttribute("aria-label"); v != "" {
			return v
		}
		if v, _ := el.Text(); v != "" {
			return strings.TrimSpace(v)
		}
		v, _ := el.GetAttribute("value")
		return v
	default:
		v, _ := el.Text()
		return strings.TrimSpace(v)
	}
}

// labelledControl resolves a <label> to the control it names
func labelledControl(wd selenium.WebDriver, el selenium.WebElement) selenium.WebElement {
	if tag, _ := el.TagName(); !strings.EqualFold(tag, "label") {
		return el
	}
	if id, _ := el.GetAttribute("for"); id != "" {
		if control, err := wd.FindElement(selenium.ByID, id); err == nil {
			return control
		}
	}
	if control, err := el.FindElement(selenium.ByXPATH, ".//input | .//select | .//textarea"); err == nil {
		return control
	}
	return el
}

func (p *seleniumPage) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	active, err := p.wd.ActiveElement()
	if err != nil {
		return err
	}
	return active.SendKeys(keyFor(key))
}

func (p *seleniumPage) Wait(ctx context.Context, cond entities.WaitCondition, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cond.Target == nil {
		return p.waitReady(cond.State, timeout)
	}
	return p.wd.WaitWithTimeout(func(selenium.WebDriver) (bool, error) {
		candidates, err := p.Locate(ctx, *cond.Target)
		if err != nil {
			return false, nil
		}
		for _, c := range candidates {
			if visible, _ := c.IsVisible(ctx); visible {
				return true, nil
			}
		}
		return false, nil
	}, timeout)
}

func (p *seleniumPage) Content(ctx context.Context) (string, error) {
	return p.wd.PageSource()
}

// Screenshot captures the viewport; WebDriver has no full-page capture.
func (p *seleniumPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	data, err := p.wd.Screenshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *seleniumPage) URL() string {
	url, _ := p.wd.CurrentURL()
	return url
}

type seleniumElement struct {
	wd   selenium.WebDriver
	el   selenium.WebElement
	desc string
}

func (e *seleniumElement) IsVisible(ctx context.Context) (bool, error) {
	return e.el.IsDisplayed()
}

func (e *seleniumElement) IsEnabled(ctx context.Context) (bool, error) {
	return e.el.IsEnabled()
}

// Click scrolls the element into view first. Forced clicks are dispatched from script,
// which bypasses overlays intercepting the pointer.
func (e *seleniumElement) Click(ctx context.Context, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args := []interface{}{e.el}
	if opts.Force {
		_, err := e.wd.ExecuteScript("arguments[0].click();", args)
		return err
	}
	if _, err := e.wd.ExecuteScript("arguments[0].scrollIntoView({block: 'center'});", args); err != nil {
		if err := e.el.MoveTo(0, 0); err != nil {
			return err
		}
	}
	return e.el.Click()
}

func (e *seleniumElement) Fill(ctx context.Context, text string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.el.Clear(); err != nil {
		return err
	}
	return e.el.SendKeys(text)
}

func (e *seleniumElement) SelectOption(ctx context.Context, value string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	options, err := e.el.FindElements(selenium.ByTagName, "option")
	if err != nil {
		return err
	}
	for _, o := range options {
		v, _ := o.GetAttribute("value")
		label, _ := o.Text()
		if v == value || strings.TrimSpace(label) == value {
			return o.Click()
		}
	}
	return fmt.Errorf("%s has no option %q", e.desc, value)
}

func (e *seleniumElement) Press(ctx context.Context, key string, opts entities.ActOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.el.SendKeys(keyFor(key))
}

func (e *seleniumElement) Text(ctx context.Context) (string, error) {
	return e.el.Text()
}

func (e *seleniumElement) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := translate(strategy)
	if err != nil {
		return nil, err
	}
	return locate(e.wd, e.el, q.within(), strategy, e.desc+" >> "+strategy.String())
}

func (e *seleniumElement) Value(ctx context.Context) (string, error) {
	return e.el.GetAttribute("value")
}

func (e *seleniumElement) String() string {
	return e.desc
}

var (
	_ interfaces.Session    = (*seleniumSession)(nil)
	_ interfaces.PageHandle = (*seleniumPage)(nil)
	_ interfaces.Element    = (*seleniumElement)(nil)
)
