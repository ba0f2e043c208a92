// Package memory provides a scripted in-process page. It backs the dry-run
// driver and stands in for a real browser in tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Node is one scripted element
type Node struct {
	ID          string
	Role        string
	Name        string
	Text        string
	Placeholder string
	Label       string
	Selectors   []string
	Options     []string
	// Parent is the ID of the enclosing node.
	Parent string

	Hidden   bool
	Disabled bool
	// Covered nodes reject clicks unless forced, like an element under a lingering overlay.
	Covered bool
	// ActionErr makes every action on the node fail.
	ActionErr error

	OnClick func(p *Page)
	OnKey   map[string]func(p *Page)

	value    string
	selected string
}

// NavigateFunc decides how long a navigation takes and whether it fails
type NavigateFunc func(url string, waitUntil entities.LoadState) (time.Duration, error)

// NavCall records one Navigate invocation
type NavCall struct {
	URL       string
	WaitUntil entities.LoadState
	Timeout   time.Duration
}

// Page is an in-memory PageHandle
type Page struct {
	mu        sync.Mutex
	clock     interfaces.Clock
	nodes     []*Node
	url       string
	navigate  NavigateFunc
	idleErr   error
	locateErr map[entities.StrategyKind]error
	keys      map[string]func(p *Page)
	actions   []string
	navCalls  []NavCall
}

// NewPage creates an empty page driven by clock.
func NewPage(clock interfaces.Clock, nodes ...*Node) *Page {
	return &Page{
		clock:     clock,
		nodes:     nodes,
		url:       "about:blank",
		locateErr: make(map[entities.StrategyKind]error),
		keys:      make(map[string]func(p *Page)),
	}
}

// OnNavigate scripts navigation timing and failures.
func (p *Page) OnNavigate(fn NavigateFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigate = fn
}

// FailNetworkIdle makes networkidle waits time out with err.
func (p *Page) FailNetworkIdle(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idleErr = err
}

// FailLocate makes every Locate call of the given kind return err.
func (p *Page) FailLocate(kind entities.StrategyKind, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locateErr[kind] = err
}

// OnKey registers a page-level key handler.
func (p *Page) OnKey(key string, fn func(p *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[key] = fn
}

// Add appends nodes to the document.
func (p *Page) Add(nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = append(p.nodes, nodes...)
}

// Replace swaps the whole document, as a client-side route change would.
func (p *Page) Replace(nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = nodes
}

// Show makes the nodes with the given ids visible.
func (p *Page) Show(ids ...string) {
	p.setHidden(false, ids...)
}

// Hide hides the nodes with the given ids.
func (p *Page) Hide(ids ...string) {
	p.setHidden(true, ids...)
}

func (p *Page) setHidden(hidden bool, ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if slices.Contains(ids, n.ID) {
			n.Hidden = hidden
		}
	}
}

// Uncover clears the Covered flag on every node.
func (p *Page) Uncover() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		n.Covered = false
	}
}

// Node returns the node with the given id.
func (p *Page) Node(id string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(id)
}

// Value returns the filled value of a node.
func (p *Page) Value(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if n.ID == id {
			if n.selected != "" {
				return n.selected
			}
			return n.value
		}
	}
	return ""
}

// SetValue sets a node's value the way page script would.
func (p *Page) SetValue(id, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if n.ID == id {
			n.value = value
		}
	}
}

// Actions returns the recorded interaction log.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.actions)
}

// NavCalls returns every navigation attempt issued to the page.
func (p *Page) NavCalls() []NavCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.navCalls)
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

// Navigate implements interfaces.PageHandle.
func (p *Page) Navigate(ctx context.Context, url string, waitUntil entities.LoadState, timeout time.Duration) error {
	p.mu.Lock()
	p.navCalls = append(p.navCalls, NavCall{URL: url, WaitUntil: waitUntil, Timeout: timeout})
	navigate := p.navigate
	p.mu.Unlock()

	var delay time.Duration
	var err error
	if navigate != nil {
		delay, err = navigate(url, waitUntil)
	}
	if delay > timeout {
		if sleepErr := p.clock.Sleep(ctx, timeout); sleepErr != nil {
			return sleepErr
		}
		return fmt.Errorf("timeout %dms exceeded waiting for %s", timeout.Milliseconds(), waitUntil)
	}
	if sleepErr := p.clock.Sleep(ctx, delay); sleepErr != nil {
		return sleepErr
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

// Locate implements interfaces.PageHandle.
func (p *Page) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.locateErr[strategy.Kind]; err != nil {
		return nil, err
	}

	var out []interfaces.Element
	for _, n := range p.nodes {
		if matches(n, strategy) {
			out = append(out, &element{page: p, node: n})
		}
	}
	return out, nil
}

// inside reports whether n is nested in the node with id ancestor. Callers hold p.mu.
func (p *Page) inside(n *Node, ancestor string) bool {
	for range p.nodes {
		if n.Parent == "" {
			return false
		}
		if n.Parent == ancestor {
			return true
		}
		parent := p.find(n.Parent)
		if parent == nil {
			return false
		}
		n = parent
	}
	return false
}

func (p *Page) find(id string) *Node {
	for _, n := range p.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func matches(n *Node, s entities.SelectorStrategy) bool {
	switch s.Kind {
	case entities.StrategyRole:
		return n.Role != "" && n.Role == s.Role && s.Matches(n.Name)
	case entities.StrategyPlaceholder:
		return n.Placeholder != "" && s.Matches(n.Placeholder)
	case entities.StrategyLabel:
		return n.Label != "" && s.Matches(n.Label)
	case entities.StrategyText:
		return n.Text != "" && s.Matches(n.Text)
	case entities.StrategyStructure:
		return slices.Contains(n.Selectors, s.Selector)
	default:
		return false
	}
}

// Press implements interfaces.PageHandle.
func (p *Page) Press(ctx context.Context, key string) error {
	p.record("press:%s", key)

	p.mu.Lock()
	var handlers []func(*Page)
	if fn, ok := p.keys[key]; ok {
		handlers = append(handlers, fn)
	}
	for _, n := range p.nodes {
		if fn, ok := n.OnKey[key]; ok && !n.Hidden {
			handlers = append(handlers, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(p)
	}
	return nil
}

// Wait implements interfaces.PageHandle.
func (p *Page) Wait(ctx context.Context, cond entities.WaitCondition, timeout time.Duration) error {
	if cond.Target != nil {
		candidates, err := p.Locate(ctx, *cond.Target)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if visible, _ := c.IsVisible(ctx); visible {
				return nil
			}
		}
		if err := p.clock.Sleep(ctx, timeout); err != nil {
			return err
		}
		return fmt.Errorf("timeout %dms exceeded waiting for %s", timeout.Milliseconds(), cond.Target)
	}

	p.mu.Lock()
	idleErr := p.idleErr
	p.mu.Unlock()
	if cond.State == entities.LoadStateNetworkIdle && idleErr != nil {
		if err := p.clock.Sleep(ctx, timeout); err != nil {
			return err
		}
		return idleErr
	}
	return nil
}

// Content implements interfaces.PageHandle.
func (p *Page) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, n := range p.nodes {
		if n.Hidden {
			continue
		}
		fmt.Fprintf(&b, "<div id=%q role=%q>%s</div>\n", n.ID, n.Role, firstNonEmpty(n.Text, n.Name, n.Placeholder, n.Label))
	}
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

// Screenshot writes the rendered content in place of an image.
func (p *Page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	content, _ := p.Content(ctx)
	return os.WriteFile(path, []byte(content), 0644)
}

// URL implements interfaces.PageHandle.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ interfaces.PageHandle = (*Page)(nil)
