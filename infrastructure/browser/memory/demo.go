package memory

import (
	"strconv"
	"time"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Demo site selectors
const (
	OutboundDaySelector = `#calendarItems-outbound [class*="available"]`
	InboundDaySelector  = `#calendarItems-inbound [class*="available"]`
	NextMonthSelector   = `[data-testid="chevron-right"]`
	ResultCardSelector  = `[class*="result" i]`
)

// DemoLoadTime is how long a demo navigation takes.
const DemoLoadTime = 800 * time.Millisecond

// DemoDateLayout is how the demo date inputs display a picked day.
const DemoDateLayout = "Mon 2 Jan 2006"

// DemoSite builds a scripted booking site covering every page of the flow.
// It backs the dry-run driver so the whole pipeline can run offline.
func DemoSite(clock interfaces.Clock) *Page {
	p := NewPage(clock)
	p.OnNavigate(func(string, entities.LoadState) (time.Duration, error) {
		p.Replace(DemoHome()...)
		return DemoLoadTime, nil
	})
	return p
}

// DemoHome returns the search form with a cookie banner and a promotional popup on top.
func DemoHome() []*Node {
	return []*Node{
		{ID: "cookie-banner", Text: "We value your privacy", Selectors: []string{"#cmNotifyBanner"}},
		{ID: "cookie-accept", Role: "button", Name: "Accept", OnClick: func(p *Page) {
			p.Hide("cookie-banner", "cookie-accept")
			p.Uncover()
		}},
		{ID: "promo", Text: "Sign up to win £500", Selectors: []string{`[class*="promo"]`}},
		{ID: "promo-close", Role: "button", Name: "×", Parent: "promo", OnClick: func(p *Page) {
			p.Hide("promo", "promo-close")
		}},

		{ID: "clear-search", Role: "link", Name: "Clear search", Text: "Clear search"},
		{ID: "departure", Placeholder: "Choose airports", Label: "Departure airport", Covered: true},
		{ID: "destination", Placeholder: "Choose airports", Label: "Destination airport", Covered: true},
		{ID: "airport-search", Placeholder: "Start typing to search"},
		{ID: "departure-date", Placeholder: "Select a date", Label: "Departure date", OnClick: func(p *Page) {
			p.Show("outbound-day")
		}},
		{ID: "return-date", Placeholder: "Select a date", Label: "Return date"},
		{ID: "outbound-day", Text: "14", Hidden: true, Selectors: []string{OutboundDaySelector}, OnClick: func(p *Page) {
			p.SetValue("departure-date", p.calendarDay(0, 14).Format(DemoDateLayout))
		}},
		{ID: "inbound-day", Text: "21", Hidden: true, Selectors: []string{InboundDaySelector}, OnClick: func(p *Page) {
			p.SetValue("return-date", p.calendarDay(1, 21).Format(DemoDateLayout))
		}},
		{ID: "next-month", Selectors: []string{NextMonthSelector}, OnClick: func(p *Page) {
			p.Show("inbound-day")
		}},
		{ID: "done", Role: "button", Name: "Done"},
		{ID: "rooms", Placeholder: "Rooms & Guests", Label: "Rooms & Guests"},
		{ID: "adults", Label: "Adults", Options: numbers(1, 9)},
		{ID: "children", Label: "Children", Options: numbers(0, 6)},
		{ID: "child-age", Label: "Child 1 age", Options: numbers(entities.MinChildAge, entities.MaxChildAge)},
		{ID: "search", Role: "button", Name: "Search", OnClick: func(p *Page) {
			p.Replace(DemoResults()...)
		}},
	}
}

// DemoResults returns the holiday results page.
func DemoResults() []*Node {
	return []*Node{
		{ID: "result-1", Text: "Hotel Sol Costa", Selectors: []string{ResultCardSelector}},
		{ID: "result-2", Text: "Hotel Playa Azul", Selectors: []string{ResultCardSelector}},
		{ID: "results-continue", Role: "button", Name: "Continue", OnClick: func(p *Page) {
			p.Replace(DemoFlights()...)
		}},
	}
}

// DemoFlights returns the flight options page.
func DemoFlights() []*Node {
	return []*Node{
		{ID: "select-flight", Role: "button", Name: "Select"},
		{ID: "flights-continue", Role: "button", Name: "Continue", OnClick: func(p *Page) {
			p.Replace(DemoPassengerDetails()...)
		}},
	}
}

// DemoPassengerDetails returns the passenger form. Continuing with it empty shows every
// validation message.
func DemoPassengerDetails() []*Node {
	messages := []string{
		"Please select a title.",
		"Please fill in your first name.",
		"Please fill in your surname.",
		"Please fill in your date of birth",
		"Please enter a valid UK postcode.",
		"Please enter a valid UK phone number",
		"Please enter a valid email address",
	}

	nodes := []*Node{}
	ids := make([]string, 0, len(messages))
	for i, msg := range messages {
		id := "error-" + strconv.Itoa(i)
		ids = append(ids, id)
		nodes = append(nodes, &Node{ID: id, Text: msg, Hidden: true})
	}
	nodes = append(nodes, &Node{ID: "details-continue", Role: "button", Name: "Continue", OnClick: func(p *Page) {
		p.Show(ids...)
	}})
	return nodes
}

// calendarDay is the given day of the month monthsAhead of the page clock.
func (p *Page) calendarDay(monthsAhead, day int) time.Time {
	now := p.clock.Now()
	return time.Date(now.Year(), now.Month()+time.Month(monthsAhead), day, 0, 0, 0, 0, now.Location())
}

func numbers(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}
