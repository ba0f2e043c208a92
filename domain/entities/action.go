package entities

import "fmt"

// ActionType represents the type of interaction the executor can perform
type ActionType string

const (
	ActionClick        ActionType = "click"
	ActionFill         ActionType = "fill"
	ActionSelectOption ActionType = "select_option"
	ActionPressKey     ActionType = "press_key"
)

// Action represents a single interaction with an element or the page
type Action struct {
	Type  ActionType `json:"type"`
	Text  string     `json:"text,omitempty"`
	Value string     `json:"value,omitempty"`
	Key   string     `json:"key,omitempty"`
}

func Click() Action                    { return Action{Type: ActionClick} }
func Fill(text string) Action          { return Action{Type: ActionFill, Text: text} }
func SelectOption(value string) Action { return Action{Type: ActionSelectOption, Value: value} }
func PressKey(key string) Action       { return Action{Type: ActionPressKey, Key: key} }

func (a Action) String() string {
	switch a.Type {
	case ActionFill:
		return fmt.Sprintf("fill(%q)", a.Text)
	case ActionSelectOption:
		return fmt.Sprintf("select_option(%q)", a.Value)
	case ActionPressKey:
		return fmt.Sprintf("press(%s)", a.Key)
	default:
		return string(a.Type)
	}
}

// ActOptions controls one executor call.
// Force skips the actionability checks; Required turns a failure into OutcomeFailed.
type ActOptions struct {
	Force    bool
	Required bool
}

// OutcomeStatus is the result class of a single action
type OutcomeStatus string

const (
	OutcomeDone    OutcomeStatus = "done"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// ActionOutcome represents the result of an action
type ActionOutcome struct {
	Status OutcomeStatus `json:"status"`
	Action Action        `json:"action"`
	Target string        `json:"target,omitempty"`
	Err    error         `json:"-"`
}

// Done reports whether the action completed.
func (o ActionOutcome) Done() bool {
	return o.Status == OutcomeDone
}
