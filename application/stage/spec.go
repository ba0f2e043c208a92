package stage

import (
	"time"

	"booking_automation/application/generator"
	"booking_automation/domain/entities"
)

// Step is one action within a stage. With no Field it acts on the stage target,
// or on the page keyboard when the action is a key press and PageLevel is set.
type Step struct {
	Field     *entities.FieldDescriptor
	PageLevel bool
	Action    entities.Action
	// Input overrides the action's text or value with booking data.
	Input    func(entities.BookingData) string
	Optional bool
	Force    bool
	// Await bounds a wait for Field to become visible before resolving it.
	Await time.Duration
	// OnMiss runs when Field cannot be resolved, after which the step is retried once.
	OnMiss []Step
}

// Spec declares one booking stage
type Spec struct {
	Name     entities.StageName
	Required bool
	// Target is resolved after overlays are cleared. A nil Target makes the stage
	// consist of its steps alone.
	Target   *entities.FieldDescriptor
	Steps    []Step
	Fallback []Step
	Input    func(entities.BookingData) string
	Simulate func(*generator.Generator) string
	// Readback turns what the target shows after the steps into the confirmed value.
	// An error leaves the stage unconfirmed.
	Readback func(shown string) (string, error)
	// ExcludeOverlays names overlay categories the stage dismisses itself.
	ExcludeOverlays []string
	// AwaitTimeout bounds a swallowed wait for the target before resolution.
	AwaitTimeout time.Duration
}

// Field returns a pointer to fd for use in Spec and Step literals.
func Field(fd entities.FieldDescriptor) *entities.FieldDescriptor {
	return &fd
}

func (s Spec) firstAction() entities.Action {
	if len(s.Steps) > 0 {
		return s.Steps[0].Action
	}
	if len(s.Fallback) > 0 {
		return s.Fallback[0].Action
	}
	return entities.Click()
}

func (st Step) resolvedAction(data entities.BookingData) entities.Action {
	action := st.Action
	if st.Input == nil {
		return action
	}
	switch action.Type {
	case entities.ActionFill:
		action.Text = st.Input(data)
	case entities.ActionSelectOption:
		action.Value = st.Input(data)
	case entities.ActionPressKey:
		action.Key = st.Input(data)
	}
	return action
}
