package stage

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking_automation/application/generator"
	"booking_automation/application/interaction"
	"booking_automation/application/locator"
	"booking_automation/application/overlay"
	"booking_automation/domain/entities"
	"booking_automation/infrastructure/browser/memory"
	"booking_automation/infrastructure/clock"
	"booking_automation/infrastructure/events"
)

var (
	departureField = entities.Field("departure airport",
		entities.ByPlaceholder("choose airports"),
		entities.ByLabel("departure airport"),
	)
	airportSearch = entities.Field("airport search", entities.ByPlaceholder("start typing to search"))
	doneButton    = entities.Field("done", entities.ByRole("button", "done"))
	searchButton  = entities.Field("search", entities.ByRole("button", "search"))
	clearSearch   = entities.Field("clear search", entities.ByRole("link", "clear search"))
	calendarDay   = entities.Field("calendar day", entities.ByStructure(`#calendarItems-outbound [class*="available"]`))
	nextMonth     = entities.Field("next month", entities.ByStructure(`[data-testid="chevron-right"]`))
)

type fixture struct {
	runner   *Runner
	page     *memory.Page
	recorder *events.Recorder
	data     entities.BookingData
}

func newFixture(t *testing.T, nodes ...*memory.Node) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	page := memory.NewPage(clk, nodes...)
	gen := generator.New(clk, rand.New(rand.NewSource(3)), 30)
	recorder := events.NewRecorder()
	data := gen.Generate()

	runner := NewRunner(Deps{
		Page:      page,
		Overlays:  overlay.NewResolver(page, clk, overlay.DefaultConfig(), nil, logger),
		Locator:   locator.NewResolver(page, logger),
		Executor:  interaction.NewExecutor(page, clk, logger, 300*time.Millisecond),
		Generator: gen,
		Clock:     clk,
		Events:    recorder,
		Logger:    logger,
	}, "run-1", data)

	return &fixture{runner: runner, page: page, recorder: recorder, data: data}
}

func departureSpec() Spec {
	return Spec{
		Name:   entities.StageDeparture,
		Target: Field(departureField),
		Steps: []Step{
			{Action: entities.Click(), Force: true},
			{Field: Field(airportSearch), Action: entities.Fill(""), Input: func(d entities.BookingData) string { return d.DepartureAirport }},
			{PageLevel: true, Action: entities.PressKey("Enter")},
			{Field: Field(doneButton), Action: entities.Click(), Force: true, Optional: true},
		},
		Input:    func(d entities.BookingData) string { return d.DepartureAirport },
		Simulate: (*generator.Generator).DepartureAirport,
	}
}

func searchSpec() Spec {
	return Spec{
		Name:     entities.StageSearch,
		Required: true,
		Target:   Field(searchButton),
		Steps:    []Step{{Action: entities.Click(), Force: true}},
		Fallback: []Step{{PageLevel: true, Action: entities.PressKey("Enter")}},
	}
}

func airportNodes() []*memory.Node {
	return []*memory.Node{
		{ID: "departure", Placeholder: "Choose airports"},
		{ID: "airport-search", Placeholder: "Start typing to search"},
		{ID: "done", Role: "button", Name: "Done"},
	}
}

func TestRun_Confirmed(t *testing.T) {
	f := newFixture(t, airportNodes()...)

	res, err := f.runner.Run(context.Background(), departureSpec())
	require.NoError(t, err)

	assert.Equal(t, entities.StateConfirmed, res.State)
	assert.Equal(t, entities.ViaPrimary, res.Via)
	assert.Equal(t, f.data.DepartureAirport, res.Value)
	assert.Equal(t, []string{
		"click:departure",
		"fill:airport-search=" + f.data.DepartureAirport,
		"press:Enter",
		"click:done",
	}, f.page.Actions())
	assert.Equal(t, []entities.StageState{
		entities.StateIdle,
		entities.StateOverlaysClearing,
		entities.StateResolving,
		entities.StateActing,
		entities.StateConfirmed,
	}, f.recorder.Path(entities.StageDeparture))

	for _, e := range f.recorder.Events() {
		assert.Equal(t, "run-1", e.RunID)
	}
}

func TestRun_NotFoundIsSimulated(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Run(context.Background(), departureSpec())
	require.NoError(t, err)

	assert.Equal(t, entities.StateSimulated, res.State)
	assert.False(t, res.Confirmed())
	assert.Contains(t, generator.DepartureAirports(), res.Value)
	assert.ErrorIs(t, res.Err, entities.ErrElementNotFound)
	assert.Empty(t, f.page.Actions())
	assert.Equal(t, []entities.StageState{
		entities.StateIdle,
		entities.StateOverlaysClearing,
		entities.StateResolving,
		entities.StateSimulated,
	}, f.recorder.Path(entities.StageDeparture))
}

func TestRun_MandatoryStepMissIsSimulated(t *testing.T) {
	// the dropdown never hydrates, so the search input is missing
	f := newFixture(t, &memory.Node{ID: "departure", Placeholder: "Choose airports"})

	res, err := f.runner.Run(context.Background(), departureSpec())
	require.NoError(t, err)

	assert.Equal(t, entities.StateSimulated, res.State)
	assert.Equal(t, []string{"click:departure"}, f.page.Actions())
	path := f.recorder.Path(entities.StageDeparture)
	assert.Equal(t, entities.StateActing, path[len(path)-2])
}

func TestRun_OptionalStepNeverDowngrades(t *testing.T) {
	nodes := airportNodes()[:2]
	f := newFixture(t, nodes...)

	res, err := f.runner.Run(context.Background(), departureSpec())
	require.NoError(t, err)
	assert.Equal(t, entities.StateConfirmed, res.State)
}

func TestRun_ActionOnlyMissIsSkipped(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Run(context.Background(), Spec{
		Name:   entities.StageClearSearch,
		Target: Field(clearSearch),
		Steps:  []Step{{Action: entities.Click(), Force: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StateSkipped, res.State)
	assert.Empty(t, res.Value)
	assert.True(t, res.Acceptable())
}

func TestRun_RequiredFallback(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Run(context.Background(), searchSpec())
	require.NoError(t, err)

	assert.Equal(t, entities.StateConfirmed, res.State)
	assert.Equal(t, entities.ViaFallback, res.Via)
	assert.Equal(t, []string{"press:Enter"}, f.page.Actions())
}

func TestRun_RequiredFailure(t *testing.T) {
	f := newFixture(t, &memory.Node{ID: "search", Role: "button", Name: "Search", ActionErr: errors.New("element detached")})

	spec := searchSpec()
	spec.Fallback = nil
	res, err := f.runner.Run(context.Background(), spec)
	require.Error(t, err)

	var failure *entities.ActionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, entities.StageSearch, failure.Stage)
	assert.Equal(t, entities.ActionClick, failure.Action.Type)
	assert.Equal(t, entities.StateSkipped, res.State)
	assert.False(t, res.Acceptable())
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, entities.OutcomeFailed, res.Outcomes[0].Status)
}

func TestRun_RequiredNeverSimulated(t *testing.T) {
	f := newFixture(t)

	spec := departureSpec()
	spec.Required = true
	res, err := f.runner.Run(context.Background(), spec)

	var failure *entities.ActionFailure
	require.ErrorAs(t, err, &failure)
	assert.ErrorIs(t, err, entities.ErrElementNotFound)
	assert.Equal(t, entities.StateSkipped, res.State)
	assert.Empty(t, res.Value)
}

func TestRun_StepRecovery(t *testing.T) {
	f := newFixture(t,
		&memory.Node{ID: "date", Placeholder: "Select a date"},
		&memory.Node{ID: "day-14", Text: "14", Hidden: true, Selectors: []string{`#calendarItems-outbound [class*="available"]`}, OnClick: func(p *memory.Page) {
			p.SetValue("date", "2025-04-14")
		}},
		&memory.Node{ID: "next", Selectors: []string{`[data-testid="chevron-right"]`}, OnClick: func(p *memory.Page) {
			p.Show("day-14")
		}},
	)

	res, err := f.runner.Run(context.Background(), Spec{
		Name:   entities.StageDate,
		Target: Field(entities.Field("date", entities.ByPlaceholder("select a date"))),
		Steps: []Step{
			{Action: entities.Click(), Force: true},
			{
				Field:  Field(calendarDay),
				Action: entities.Click(),
				Force:  true,
				OnMiss: []Step{{Field: Field(nextMonth), Action: entities.Click()}},
			},
		},
		Readback: shownAsIs,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StateConfirmed, res.State)
	assert.Equal(t, "2025-04-14", res.Value)
	assert.Equal(t, []string{"click:date", "click:next", "click:day-14"}, f.page.Actions())
}

func shownAsIs(shown string) (string, error) {
	if shown == "" {
		return "", entities.ErrUnconfirmed
	}
	return shown, nil
}

func TestRun_ReadbackUnconfirmed(t *testing.T) {
	f := newFixture(t, &memory.Node{ID: "date", Placeholder: "Select a date"})
	spec := Spec{
		Name:     entities.StageDate,
		Target:   Field(entities.Field("date", entities.ByPlaceholder("select a date"))),
		Steps:    []Step{{Action: entities.Click(), Force: true}},
		Input:    func(d entities.BookingData) string { return d.DepartureDateString() },
		Readback: shownAsIs,
	}

	res, err := f.runner.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, entities.StateSkipped, res.State, "nothing shown and nothing to simulate")
	assert.ErrorIs(t, res.Err, entities.ErrUnconfirmed)
	assert.Empty(t, res.Value)

	spec.Simulate = func(g *generator.Generator) string { return g.DepartureDate().Format(entities.DateLayout) }
	res, err = f.runner.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, entities.StateSimulated, res.State)
	assert.NotEmpty(t, res.Value)
}

func TestRun_OverlaysClearedFirst(t *testing.T) {
	nodes := append([]*memory.Node{
		{ID: "banner", Text: "We value your privacy"},
		{ID: "accept", Role: "button", Name: "Accept", OnClick: func(p *memory.Page) { p.Hide("banner", "accept") }},
	}, airportNodes()...)
	f := newFixture(t, nodes...)

	res, err := f.runner.Run(context.Background(), departureSpec())
	require.NoError(t, err)

	assert.Equal(t, entities.StateConfirmed, res.State)
	assert.Equal(t, "click:accept", f.page.Actions()[0])
}
