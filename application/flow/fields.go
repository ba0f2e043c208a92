package flow

import "booking_automation/domain/entities"

// Search form fields
var (
	CookieAcceptField = entities.Field("cookie accept",
		entities.ByRole("button", "^accept"),
		entities.ByStructure(`button:has-text("Accept All")`),
		entities.ByStructure(`[role="button"]:has-text("Accept")`),
	)

	ClearSearchField = entities.Field("clear search",
		entities.ByRole("link", "clear search"),
		entities.ByRole("button", "clear search"),
		entities.ByText("clear search"),
	)

	DepartureField = entities.Field("departure airport",
		entities.ByPlaceholder("choose airports"),
		entities.ByLabel("departure airport"),
	)

	// The destination input shares its placeholder with the departure input.
	DestinationField = entities.Field("destination airport",
		entities.ByPlaceholder("choose airports").Nth(1),
		entities.ByLabel("destination airport"),
	)

	DepartureDateField = entities.Field("departure date",
		entities.ByPlaceholder("select a date"),
		entities.ByLabel("departure date"),
	)

	ReturnDateField = entities.Field("return date",
		entities.ByPlaceholder("select a date").Nth(1),
		entities.ByLabel("return date"),
	)

	RoomsGuestsField = entities.Field("rooms and guests",
		entities.ByPlaceholder("rooms"),
		entities.ByLabel("rooms.*guests"),
	)

	SearchButtonField = entities.Field("search button",
		entities.ByRole("button", "search"),
		entities.ByText("search"),
	)

	AirportSearchField = entities.Field("airport search",
		entities.ByPlaceholder("start typing to search"),
		entities.ByPlaceholder("search"),
	)

	OutboundDayField = entities.Field("outbound day",
		entities.ByStructure(`#calendarItems-outbound [class*="available"]`),
	)

	InboundDayField = entities.Field("inbound day",
		entities.ByStructure(`#calendarItems-inbound [class*="available"]`),
	)

	NextMonthField = entities.Field("next month",
		entities.ByStructure(`[data-testid="chevron-right"]`),
	)

	DoneButtonField = entities.Field("done",
		entities.ByRole("button", "done"),
	)

	AdultsField = entities.Field("adults",
		entities.ByLabel("^adults$"),
		entities.ByStructure(`label:has-text("Adults") + select`),
	)

	ChildrenField = entities.Field("children",
		entities.ByLabel("children"),
		entities.ByStructure(`label:has-text("Children") + select`),
	)

	ChildAgeField = entities.Field("child age",
		entities.ByLabel("age|years"),
		entities.ByStructure(`select:has-text("Age")`),
	)
)

// Results, flights and passenger details pages
var (
	ContinueField = entities.Field("continue",
		entities.ByRole("button", "continue"),
	)

	ResultCardField = entities.Field("result card",
		entities.ByStructure(`[class*="result" i]`),
		entities.ByStructure(`[data-testid*="result" i]`),
	)

	SelectFlightField = entities.Field("select flight",
		entities.ByRole("button", "select"),
	)
)

// ValidationFields maps each validation category to the message it shows.
var ValidationFields = map[entities.ValidationCategory]entities.FieldDescriptor{
	entities.ValidationTitle:       entities.Field("title error", entities.ByText(`please select a title\.`)),
	entities.ValidationFirstName:   entities.Field("first name error", entities.ByText(`please fill in your first name\.`)),
	entities.ValidationSurname:     entities.Field("surname error", entities.ByText(`please fill in your surname\.`)),
	entities.ValidationDateOfBirth: entities.Field("date of birth error", entities.ByText(`please fill in your date of birth`)),
	entities.ValidationPostcode:    entities.Field("postcode error", entities.ByText(`please enter a valid uk postcode\.`)),
	entities.ValidationPhone:       entities.Field("phone error", entities.ByText(`please enter a valid uk phone number`)),
	entities.ValidationEmail:       entities.Field("email error", entities.ByText(`please enter a valid email address`)),
}
