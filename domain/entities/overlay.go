package entities

// DismissalKind is one way of getting rid of an overlay
type DismissalKind string

const (
	DismissCloseButton DismissalKind = "close_button"
	DismissEscapeKey   DismissalKind = "escape_key"
	DismissClickSelf   DismissalKind = "click_self"
)

// Dismissal is a single dismissal attempt. Targets is only used by close-button dismissals,
// and Within restricts them to elements nested in the detected overlay.
type Dismissal struct {
	Kind    DismissalKind      `json:"kind"`
	Targets []SelectorStrategy `json:"targets,omitempty"`
	Within  bool               `json:"within,omitempty"`
}

// OverlayCategory groups the detection selectors and ordered dismissals of one overlay family.
// Lower Priority is evaluated first.
type OverlayCategory struct {
	Name       string             `json:"name"`
	Priority   int                `json:"priority"`
	Detection  []SelectorStrategy `json:"detection"`
	Dismissals []Dismissal        `json:"dismissals"`
}

// OverlayPass summarizes one run of the overlay cascade
type OverlayPass struct {
	Dismissed  []string `json:"dismissed,omitempty"`
	Persisting []string `json:"persisting,omitempty"`
}

// Attempted reports whether the pass tried to dismiss anything.
func (p OverlayPass) Attempted() bool {
	return len(p.Dismissed) > 0 || len(p.Persisting) > 0
}
