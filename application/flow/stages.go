package flow

import (
	"fmt"
	"strconv"
	"time"

	"booking_automation/application/generator"
	"booking_automation/application/overlay"
	"booking_automation/application/stage"
	"booking_automation/domain/entities"
)

func (f *Flow) cookieSpec() stage.Spec {
	return stage.Spec{
		Name:            entities.StageAcceptCookies,
		Target:          stage.Field(CookieAcceptField),
		Steps:           []stage.Step{{Action: entities.Click(), Force: true}},
		Input:           constant("accepted"),
		ExcludeOverlays: []string{overlay.CategoryCookie},
	}
}

func (f *Flow) clearSearchSpec() stage.Spec {
	return stage.Spec{
		Name:   entities.StageClearSearch,
		Target: stage.Field(ClearSearchField),
		Steps:  []stage.Step{{Action: entities.Click(), Force: true}},
		Input:  constant("cleared"),
	}
}

// airportSpec opens an airport field, searches the catalog value and confirms it.
func (f *Flow) airportSpec(name entities.StageName, field entities.FieldDescriptor, value func(entities.BookingData) string, simulate func(*generator.Generator) string) stage.Spec {
	return stage.Spec{
		Name:   name,
		Target: stage.Field(field),
		Steps: []stage.Step{
			{Action: entities.Click(), Force: true},
			{Field: stage.Field(AirportSearchField), Action: entities.Fill(""), Input: value},
			{PageLevel: true, Action: entities.PressKey("Enter")},
			{Field: stage.Field(DoneButtonField), Action: entities.Click(), Force: true, Optional: true},
		},
		Input:    value,
		Simulate: simulate,
	}
}

// dateSpec picks the first available day, paging forward one month if none is shown.
// The stage value is the date the input shows afterwards.
func (f *Flow) dateSpec(name entities.StageName, field, day entities.FieldDescriptor) stage.Spec {
	return stage.Spec{
		Name:     name,
		Target:   stage.Field(field),
		Readback: shownDate,
		Steps: []stage.Step{
			{Action: entities.Click(), Force: true},
			{
				Field:  stage.Field(day),
				Action: entities.Click(),
				Force:  true,
				OnMiss: []stage.Step{{Field: stage.Field(NextMonthField), Action: entities.Click()}},
			},
			{Field: stage.Field(DoneButtonField), Action: entities.Click(), Force: true, Optional: true},
		},
	}
}

func (f *Flow) departureDateSpec() stage.Spec {
	spec := f.dateSpec(entities.StageDate, DepartureDateField, OutboundDayField)
	spec.Simulate = func(g *generator.Generator) string { return g.DepartureDate().Format(entities.DateLayout) }
	return spec
}

func (f *Flow) returnDateSpec() stage.Spec {
	return f.dateSpec(entities.StageReturnDate, ReturnDateField, InboundDayField)
}

func (f *Flow) passengersSpec() stage.Spec {
	return stage.Spec{
		Name:   entities.StagePassengers,
		Target: stage.Field(RoomsGuestsField),
		Steps: []stage.Step{
			{Action: entities.Click(), Force: true},
			{Field: stage.Field(AdultsField), Action: entities.SelectOption(""), Input: func(d entities.BookingData) string {
				return strconv.Itoa(d.Adults)
			}},
			{Field: stage.Field(ChildrenField), Action: entities.SelectOption(""), Input: func(d entities.BookingData) string {
				return strconv.Itoa(d.Children)
			}},
			{Field: stage.Field(ChildAgeField), Action: entities.SelectOption(""), Input: func(d entities.BookingData) string {
				return strconv.Itoa(d.ChildAge)
			}},
			{Field: stage.Field(DoneButtonField), Action: entities.Click(), Force: true, Optional: true},
		},
		Input:    entities.BookingData.Passengers,
		Simulate: simulatedPassengers,
	}
}

func (f *Flow) searchSpec() stage.Spec {
	return stage.Spec{
		Name:         entities.StageSearch,
		Required:     true,
		Target:       stage.Field(SearchButtonField),
		AwaitTimeout: f.cfg.SearchWait,
		Steps:        []stage.Step{{Action: entities.Click(), Force: true}},
		Fallback:     []stage.Step{{PageLevel: true, Action: entities.PressKey("Enter")}},
		Input:        constant("submitted"),
	}
}

// continueSpec clicks an optional preselection and then the required continue button.
func (f *Flow) continueSpec(name entities.StageName, preselect *entities.FieldDescriptor) stage.Spec {
	var steps []stage.Step
	if preselect != nil {
		steps = append(steps, stage.Step{Field: preselect, Action: entities.Click(), Force: true, Optional: true})
	}
	steps = append(steps, stage.Step{Action: entities.Click(), Force: true})

	return stage.Spec{
		Name:         name,
		Required:     true,
		Target:       stage.Field(ContinueField),
		AwaitTimeout: f.cfg.ContinueWait,
		Steps:        steps,
		Input:        constant("continued"),
	}
}

// shownDateLayouts are the formats date inputs display a picked day in.
var shownDateLayouts = []string{
	entities.DateLayout,
	"Mon 2 Jan 2006",
	"Monday 2 January 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02/01/2006",
}

func shownDate(shown string) (string, error) {
	for _, layout := range shownDateLayouts {
		if t, err := time.Parse(layout, shown); err == nil {
			return t.Format(entities.DateLayout), nil
		}
	}
	return "", fmt.Errorf("date %q: %w", shown, entities.ErrUnconfirmed)
}

func simulatedPassengers(g *generator.Generator) string {
	return entities.BookingData{
		Adults:   entities.RequiredAdults,
		Children: entities.RequiredChildren,
		ChildAge: g.ChildAge(),
	}.Passengers()
}

func constant(v string) func(entities.BookingData) string {
	return func(entities.BookingData) string { return v }
}
