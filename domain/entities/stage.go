package entities

import "time"

// StageName identifies one discrete booking-process step
type StageName string

const (
	StageNavigateHome     StageName = "navigate_home"
	StageAcceptCookies    StageName = "accept_cookies"
	StageClearSearch      StageName = "clear_search"
	StageDeparture        StageName = "departure"
	StageDestination      StageName = "destination"
	StageDate             StageName = "departure_date"
	StageReturnDate       StageName = "return_date"
	StagePassengers       StageName = "passengers"
	StageSearch           StageName = "search"
	StageResults          StageName = "results"
	StageFlights          StageName = "flights"
	StagePassengerDetails StageName = "passenger_details"
)

// StageState is a FlowStage state machine state
type StageState string

const (
	StateIdle             StageState = "idle"
	StateOverlaysClearing StageState = "overlays_clearing"
	StateResolving        StageState = "resolving"
	StateActing           StageState = "acting"
	StateConfirmed        StageState = "confirmed"
	StateSimulated        StageState = "simulated"
	StateSkipped          StageState = "skipped"
)

// Terminal reports whether the state ends a stage.
func (s StageState) Terminal() bool {
	return s == StateConfirmed || s == StateSimulated || s == StateSkipped
}

// Via values record which plan produced a confirmed outcome
const (
	ViaPrimary  = "primary"
	ViaFallback = "fallback"
)

// StageResult is the terminal decision of one stage
type StageResult struct {
	Stage    StageName       `json:"stage"`
	State    StageState      `json:"state"`
	Value    string          `json:"value,omitempty"`
	Required bool            `json:"required"`
	Via      string          `json:"via,omitempty"`
	Outcomes []ActionOutcome `json:"outcomes,omitempty"`
	Duration time.Duration   `json:"duration"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
}

// Confirmed reports whether a live element was located and acted upon.
func (r StageResult) Confirmed() bool {
	return r.State == StateConfirmed
}

// Simulated reports whether the value is a fallback substitute.
func (r StageResult) Simulated() bool {
	return r.State == StateSimulated
}

// Acceptable reports whether the result lets the flow continue.
// Required stages only accept a confirmed outcome.
func (r StageResult) Acceptable() bool {
	if r.Required {
		return r.State == StateConfirmed
	}
	return r.State.Terminal()
}

// StageEvent is emitted on every state transition of a stage
type StageEvent struct {
	RunID  string     `json:"run_id"`
	Stage  StageName  `json:"stage"`
	From   StageState `json:"from"`
	To     StageState `json:"to"`
	Value  string     `json:"value,omitempty"`
	Detail string     `json:"detail,omitempty"`
	At     time.Time  `json:"at"`
}
