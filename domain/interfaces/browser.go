package interfaces

import (
	"context"
	"time"

	"booking_automation/domain/entities"
)

// Element is one located candidate in the live document
type Element interface {
	// IsVisible checks whether the element is rendered and visible
	IsVisible(ctx context.Context) (bool, error)

	// IsEnabled checks whether the element accepts input
	IsEnabled(ctx context.Context) (bool, error)

	// Click clicks the element
	Click(ctx context.Context, opts entities.ActOptions) error

	// Fill replaces the element's value with text
	Fill(ctx context.Context, text string, opts entities.ActOptions) error

	// SelectOption picks an option of a select element by value or label
	SelectOption(ctx context.Context, value string, opts entities.ActOptions) error

	// Press presses a key while the element is focused
	Press(ctx context.Context, key string, opts entities.ActOptions) error

	// Text returns the element's text content
	Text(ctx context.Context) (string, error)

	// Value returns the current value of a form control
	Value(ctx context.Context) (string, error)

	// Locate returns the candidates a strategy resolves to inside this element
	Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]Element, error)

	// String describes the element for logs
	String() string
}

// PageHandle defines the live document the flow drives.
// It is owned by the browser session; flow components only borrow it.
type PageHandle interface {
	// Navigate loads url and waits until the given load state or timeout
	Navigate(ctx context.Context, url string, waitUntil entities.LoadState, timeout time.Duration) error

	// Locate returns the candidates a strategy resolves to, in document order
	Locate(ctx context.Context, strategy entities.SelectorStrategy) ([]Element, error)

	// Press presses a key on the page keyboard
	Press(ctx context.Context, key string) error

	// Wait waits for a load state or a visible target
	Wait(ctx context.Context, cond entities.WaitCondition, timeout time.Duration) error

	// Content returns the current document HTML
	Content(ctx context.Context) (string, error)

	// Screenshot writes a screenshot to path
	Screenshot(ctx context.Context, path string, fullPage bool) error

	// URL returns the current page URL
	URL() string
}

// Session owns a browser and the page handle of one run
type Session interface {
	Page() PageHandle
	Close() error
}
