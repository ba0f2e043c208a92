// Package events provides stage event sinks.
package events

import (
	"sync"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []entities.StageEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements interfaces.EventSink.
func (r *Recorder) Emit(event entities.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []entities.StageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.StageEvent, len(r.events))
	copy(out, r.events)
	return out
}

// For returns the events of one stage.
func (r *Recorder) For(stage entities.StageName) []entities.StageEvent {
	var out []entities.StageEvent
	for _, e := range r.Events() {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Path returns the sequence of states a stage went through, starting from its first From.
func (r *Recorder) Path(stage entities.StageName) []entities.StageState {
	evs := r.For(stage)
	if len(evs) == 0 {
		return nil
	}
	path := []entities.StageState{evs[0].From}
	for _, e := range evs {
		path = append(path, e.To)
	}
	return path
}

// Multi fans events out to several sinks
type Multi []interfaces.EventSink

// Emit implements interfaces.EventSink.
func (m Multi) Emit(event entities.StageEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}

var (
	_ interfaces.EventSink = (*Recorder)(nil)
	_ interfaces.EventSink = Multi(nil)
)
