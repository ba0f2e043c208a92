package interfaces

import "booking_automation/domain/entities"

// EventSink receives stage transition events. Implementations must not block for long.
type EventSink interface {
	Emit(event entities.StageEvent)
}
