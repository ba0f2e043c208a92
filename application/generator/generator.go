// Package generator produces randomized booking data for a run.
package generator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// DefaultOffsetDays is how far ahead the departure date is placed.
const DefaultOffsetDays = 30

var departureAirports = []string{
	"London Heathrow",
	"London Gatwick",
	"London Stansted",
	"Manchester",
	"Birmingham",
	"Glasgow",
	"Edinburgh",
	"Bristol",
}

var destinationAirports = []string{
	"Spain - Costa del Sol",
	"Spain - Majorca",
	"Spain - Tenerife",
	"Greece - Crete",
	"Greece - Rhodes",
	"Turkey - Antalya",
	"Cyprus - Paphos",
	"Portugal - Algarve",
}

// Generator draws booking values from fixed catalogs. It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	clock      interfaces.Clock
	rng        *rand.Rand
	offsetDays int
}

// New creates a generator. offsetDays below 1 falls back to DefaultOffsetDays.
func New(clock interfaces.Clock, rng *rand.Rand, offsetDays int) *Generator {
	if offsetDays < 1 {
		offsetDays = DefaultOffsetDays
	}
	return &Generator{
		clock:      clock,
		rng:        rng,
		offsetDays: offsetDays,
	}
}

// OffsetDays returns the departure offset in use.
func (g *Generator) OffsetDays() int {
	return g.offsetDays
}

// Generate returns a complete booking for two adults and one child.
func (g *Generator) Generate() entities.BookingData {
	return entities.BookingData{
		DepartureAirport:   g.DepartureAirport(),
		DestinationAirport: g.DestinationAirport(),
		DepartureDate:      g.DepartureDate(),
		Adults:             entities.RequiredAdults,
		Children:           entities.RequiredChildren,
		ChildAge:           g.ChildAge(),
	}
}

// DepartureAirport picks a UK departure airport.
func (g *Generator) DepartureAirport() string {
	return g.pick(departureAirports)
}

// DestinationAirport picks a holiday destination.
func (g *Generator) DestinationAirport() string {
	return g.pick(destinationAirports)
}

// ChildAge picks an age in [MinChildAge, MaxChildAge].
func (g *Generator) ChildAge() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return entities.MinChildAge + g.rng.Intn(entities.MaxChildAge-entities.MinChildAge+1)
}

// DepartureDate returns midnight of the calendar date offsetDays after today, in the clock's zone.
func (g *Generator) DepartureDate() time.Time {
	now := g.clock.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d+g.offsetDays, 0, 0, 0, 0, now.Location())
}

func (g *Generator) pick(catalog []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return catalog[g.rng.Intn(len(catalog))]
}

// DepartureAirports returns a copy of the departure catalog.
func DepartureAirports() []string {
	return append([]string(nil), departureAirports...)
}

// DestinationAirports returns a copy of the destination catalog.
func DestinationAirports() []string {
	return append([]string(nil), destinationAirports...)
}

// LogBookingData writes the generated booking at info level.
func LogBookingData(logger logrus.FieldLogger, data entities.BookingData) {
	logger.WithFields(logrus.Fields{
		"departure":   data.DepartureAirport,
		"destination": data.DestinationAirport,
		"date":        data.DepartureDateString(),
		"adults":      data.Adults,
		"children":    data.Children,
		"child_age":   data.ChildAge,
	}).Info("Generated booking data")
}
