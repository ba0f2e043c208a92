package entities

import (
	"fmt"
	"time"
)

const (
	RequiredAdults   = 2
	RequiredChildren = 1
	MinChildAge      = 2
	MaxChildAge      = 17
)

// DateLayout is the ISO date format used for travel dates
const DateLayout = "2006-01-02"

// BookingData holds the values a run tries to enter into the search form
type BookingData struct {
	DepartureAirport   string    `json:"departure_airport"`
	DestinationAirport string    `json:"destination_airport"`
	DepartureDate      time.Time `json:"departure_date"`
	Adults             int       `json:"adults"`
	Children           int       `json:"children"`
	ChildAge           int       `json:"child_age"`
}

// DepartureDateString formats the departure date as YYYY-MM-DD.
func (b BookingData) DepartureDateString() string {
	return b.DepartureDate.Format(DateLayout)
}

// Passengers describes the guest selection in one line.
func (b BookingData) Passengers() string {
	return fmt.Sprintf("%d adults, %d child (age %d)", b.Adults, b.Children, b.ChildAge)
}

// Validate checks the booking invariants against the generation time.
func (b BookingData) Validate(generatedAt time.Time, minOffsetDays int) error {
	if b.DepartureAirport == "" || b.DestinationAirport == "" {
		return fmt.Errorf("airports must be set")
	}
	if b.Adults != RequiredAdults {
		return fmt.Errorf("adults must be %d, got %d", RequiredAdults, b.Adults)
	}
	if b.Children != RequiredChildren {
		return fmt.Errorf("children must be %d, got %d", RequiredChildren, b.Children)
	}
	if b.ChildAge < MinChildAge || b.ChildAge > MaxChildAge {
		return fmt.Errorf("child age %d outside [%d,%d]", b.ChildAge, MinChildAge, MaxChildAge)
	}
	earliest := calendarDate(generatedAt).AddDate(0, 0, minOffsetDays)
	if calendarDate(b.DepartureDate).Before(earliest) {
		return fmt.Errorf("departure date %s before %s", b.DepartureDateString(), earliest.Format(DateLayout))
	}
	return nil
}

// calendarDate keeps only the year, month and day t shows in its own zone.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
