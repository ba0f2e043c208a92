package memory

import (
	"context"
	"fmt"
	"slices"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

type element struct {
	page *Page
	node *Node
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return !e.node.Hidden, nil
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return !e.node.Disabled, nil
}

// actionable mirrors the browser's actionability checks, which force bypasses.
func (e *element) actionable(opts entities.ActOptions) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.node.ActionErr != nil {
		return e.node.ActionErr
	}
	if opts.Force {
		return nil
	}
	switch {
	case e.node.Hidden:
		return fmt.Errorf("element %s is not visible", e.node.ID)
	case e.node.Disabled:
		return fmt.Errorf("element %s is not enabled", e.node.ID)
	case e.node.Covered:
		return fmt.Errorf("element %s intercepts pointer events", e.node.ID)
	}
	return nil
}

func (e *element) Click(ctx context.Context, opts entities.ActOptions) error {
	if err := e.actionable(opts); err != nil {
		return err
	}
	e.page.record("click:%s", e.node.ID)
	if e.node.OnClick != nil {
		e.node.OnClick(e.page)
	}
	return nil
}

func (e *element) Fill(ctx context.Context, text string, opts entities.ActOptions) error {
	if err := e.actionable(opts); err != nil {
		return err
	}
	e.page.mu.Lock()
	e.node.value = text
	e.page.mu.Unlock()
	e.page.record("fill:%s=%s", e.node.ID, text)
	return nil
}

func (e *element) SelectOption(ctx context.Context, value string, opts entities.ActOptions) error {
	if err := e.actionable(opts); err != nil {
		return err
	}
	e.page.mu.Lock()
	if !slices.Contains(e.node.Options, value) {
		e.page.mu.Unlock()
		return fmt.Errorf("element %s has no option %q", e.node.ID, value)
	}
	e.node.selected = value
	e.page.mu.Unlock()
	e.page.record("select:%s=%s", e.node.ID, value)
	return nil
}

func (e *element) Press(ctx context.Context, key string, opts entities.ActOptions) error {
	if err := e.actionable(opts); err != nil {
		return err
	}
	e.page.record("press:%s:%s", e.node.ID, key)
	e.page.mu.Lock()
	fn := e.node.OnKey[key]
	e.page.mu.Unlock()
	if fn != nil {
		fn(e.page)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return firstNonEmpty(e.node.Text, e.node.Name, e.node.value), nil
}

func (e *element) Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]interfaces.Element, error) {
	p := e.page
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.locateErr[strategy.Kind]; err != nil {
		return nil, err
	}

	var out []interfaces.Element
	for _, n := range p.nodes {
		if p.inside(n, e.node.ID) && matches(n, strategy) {
			out = append(out, &element{page: p, node: n})
		}
	}
	return out, nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return firstNonEmpty(e.node.selected, e.node.value), nil
}

func (e *element) String() string {
	return "#" + e.node.ID
}

var _ interfaces.Element = (*element)(nil)
