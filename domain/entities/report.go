package entities

import "time"

// ValidationCategory names a passenger-details validation message
type ValidationCategory string

const (
	ValidationTitle       ValidationCategory = "title"
	ValidationFirstName   ValidationCategory = "first_name"
	ValidationSurname     ValidationCategory = "surname"
	ValidationDateOfBirth ValidationCategory = "date_of_birth"
	ValidationPostcode    ValidationCategory = "postcode"
	ValidationPhone       ValidationCategory = "phone"
	ValidationEmail       ValidationCategory = "email"
)

// ValidationCategories lists every category in display order.
var ValidationCategories = []ValidationCategory{
	ValidationTitle,
	ValidationFirstName,
	ValidationSurname,
	ValidationDateOfBirth,
	ValidationPostcode,
	ValidationPhone,
	ValidationEmail,
}

// ValidationIndicator pairs a validation message locator with its current visibility
type ValidationIndicator struct {
	Field   FieldDescriptor `json:"field"`
	Visible bool            `json:"visible"`
}

// ValidationBundle maps each category to its indicator
type ValidationBundle map[ValidationCategory]ValidationIndicator

// VisibleCount returns how many validation messages are showing.
func (b ValidationBundle) VisibleCount() int {
	n := 0
	for _, ind := range b {
		if ind.Visible {
			n++
		}
	}
	return n
}

// RunReport is what a finished or halted run hands to reporting
type RunReport struct {
	RunID        string                      `json:"run_id"`
	StartedAt    time.Time                   `json:"started_at"`
	FinishedAt   time.Time                   `json:"finished_at"`
	BookingData  BookingData                 `json:"booking_data"`
	Navigation   *NavigationResult           `json:"navigation,omitempty"`
	Stages       []StageResult               `json:"stages"`
	StageReached StageName                   `json:"stage_reached"`
	Halted       bool                        `json:"halted"`
	HaltReason   string                      `json:"halt_reason,omitempty"`
	Validation   map[ValidationCategory]bool `json:"validation,omitempty"`
}

// Stage returns the result recorded for name, if any.
func (r RunReport) Stage(name StageName) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// ConfirmedValues returns the values proven through the live UI.
func (r RunReport) ConfirmedValues() map[StageName]string {
	values := make(map[StageName]string)
	for _, s := range r.Stages {
		if s.Confirmed() && s.Value != "" {
			values[s.Stage] = s.Value
		}
	}
	return values
}

// SimulatedStages lists stages whose value is a fallback substitute.
func (r RunReport) SimulatedStages() []StageName {
	var names []StageName
	for _, s := range r.Stages {
		if s.Simulated() {
			names = append(names, s.Stage)
		}
	}
	return names
}
