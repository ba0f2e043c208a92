package entities

import "time"

// LoadState is the document readiness a navigation or wait is satisfied by
type LoadState string

const (
	LoadStateCommit           LoadState = "commit"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateLoad             LoadState = "load"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// NavigationAttempt records one page.goto call
type NavigationAttempt struct {
	URL       string        `json:"url"`
	WaitUntil LoadState     `json:"wait_until"`
	Timeout   time.Duration `json:"timeout"`
	Fallback  bool          `json:"fallback"`
	Err       string        `json:"error,omitempty"`
}

// NavigationResult lists the attempts a successful navigation needed
type NavigationResult struct {
	Attempts []NavigationAttempt `json:"attempts"`
}

// UsedFallback reports whether the degraded attempt was needed.
func (r NavigationResult) UsedFallback() bool {
	for _, a := range r.Attempts {
		if a.Fallback {
			return true
		}
	}
	return false
}

// WaitCondition is either a load state or a target that must become visible.
type WaitCondition struct {
	State  LoadState
	Target *SelectorStrategy
}
