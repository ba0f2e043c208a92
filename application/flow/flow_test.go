package flow

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"booking_automation/application/generator"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/browser/memory"
	"booking_automation/infrastructure/clock"
	"booking_automation/infrastructure/events"
	"booking_automation/infrastructure/security"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	flow     *Flow
	page     *memory.Page
	clock    *clock.FakeClock
	recorder *events.Recorder
}

func newHarness(t *testing.T, home func() []*memory.Node) *harness {
	t.Helper()
	return newGuardedHarness(t, home, nil)
}

func newGuardedHarness(t *testing.T, home func() []*memory.Node, guard interfaces.ActionGuard) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	page := memory.DemoSite(clk)
	if home != nil {
		page.OnNavigate(func(string, entities.LoadState) (time.Duration, error) {
			page.Replace(home()...)
			return memory.DemoLoadTime, nil
		})
	}
	gen := generator.New(clk, rand.New(rand.NewSource(11)), 30)
	recorder := events.NewRecorder()
	cfg := DefaultConfig()
	cfg.Guard = guard
	f := New(page, clk, gen, recorder, logger, cfg)
	return &harness{flow: f, page: page, clock: clk, recorder: recorder}
}

// homeWith returns the demo home page with edit applied to the nodes with the given ids.
func homeWith(edit func(n *memory.Node), ids ...string) func() []*memory.Node {
	return func() []*memory.Node {
		nodes := memory.DemoHome()
		for _, n := range nodes {
			if slices.Contains(ids, n.ID) {
				edit(n)
			}
		}
		return nodes
	}
}

func TestRun_DemoSiteEndToEnd(t *testing.T) {
	h := newHarness(t, nil)

	report, err := h.flow.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Halted)
	assert.Equal(t, entities.StagePassengerDetails, report.StageReached)
	assert.Empty(t, report.SimulatedStages())
	for _, s := range report.Stages {
		assert.True(t, s.Confirmed(), "stage %s ended %s", s.Stage, s.State)
	}

	data := h.flow.Data()
	want := map[entities.StageName]string{
		entities.StageNavigateHome:     DefaultConfig().BaseURL,
		entities.StageAcceptCookies:    "accepted",
		entities.StageClearSearch:      "cleared",
		entities.StageDeparture:        data.DepartureAirport,
		entities.StageDestination:      data.DestinationAirport,
		entities.StageDate:             "2025-03-14",
		entities.StagePassengers:       data.Passengers(),
		entities.StageSearch:           "submitted",
		entities.StageResults:          "continued",
		entities.StageFlights:          "continued",
		entities.StagePassengerDetails: "continued",
	}
	if diff := cmp.Diff(want, report.ConfirmedValues()); diff != "" {
		t.Errorf("confirmed values mismatch (-want +got):\n%s", diff)
	}

	for _, category := range entities.ValidationCategories {
		assert.True(t, report.Validation[category], "validation message for %s", category)
	}
	assert.Equal(t, h.flow.RunID(), report.RunID)
	assert.True(t, report.FinishedAt.After(report.StartedAt))
}

func TestRun_DepartureMissingIsSimulated(t *testing.T) {
	// both airport inputs share a placeholder, so the widget is removed as a whole
	h := newHarness(t, homeWith(func(n *memory.Node) {
		n.Placeholder = ""
		n.Label = ""
	}, "departure", "destination"))

	report, err := h.flow.Run(context.Background())
	require.NoError(t, err)

	dep, ok := report.Stage(entities.StageDeparture)
	require.True(t, ok)
	assert.Equal(t, entities.StateSimulated, dep.State)
	assert.Contains(t, generator.DepartureAirports(), dep.Value)
	assert.Equal(t, []entities.StageName{entities.StageDeparture, entities.StageDestination}, report.SimulatedStages())
	assert.False(t, report.Halted)
}

func TestRun_ContinueFailureHalts(t *testing.T) {
	h := newHarness(t, homeWith(func(n *memory.Node) {
		n.OnClick = func(p *memory.Page) {
			p.Replace(&memory.Node{
				ID:        "results-continue",
				Role:      "button",
				Name:      "Continue",
				ActionErr: errors.New("element is detached from the DOM"),
			})
		}
	}, "search"))

	report, err := h.flow.Run(context.Background())
	require.Error(t, err)

	var failure *entities.ActionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, entities.StageResults, failure.Stage)

	assert.True(t, report.Halted)
	assert.Equal(t, entities.StageResults, report.StageReached)
	assert.NotEmpty(t, report.HaltReason)
	_, ranFlights := report.Stage(entities.StageFlights)
	assert.False(t, ranFlights, "no stage runs after a required failure")
	assert.Empty(t, h.recorder.For(entities.StageFlights))
	assert.Equal(t, "submitted", report.ConfirmedValues()[entities.StageSearch])
}

func TestRun_DateNotShownIsSimulated(t *testing.T) {
	// the day is clicked but the input never displays a date
	h := newHarness(t, homeWith(func(n *memory.Node) {
		n.OnClick = nil
	}, "outbound-day"))

	report, err := h.flow.Run(context.Background())
	require.NoError(t, err)

	date, ok := report.Stage(entities.StageDate)
	require.True(t, ok)
	assert.Equal(t, entities.StateSimulated, date.State)
	assert.ErrorIs(t, date.Err, entities.ErrUnconfirmed)
	assert.Equal(t, h.flow.Data().DepartureDateString(), date.Value)
	assert.Contains(t, h.page.Actions(), "click:outbound-day")
	assert.Equal(t, []entities.StageName{entities.StageDate}, report.SimulatedStages())
}

func TestRun_ChildAgeFailureIsSimulated(t *testing.T) {
	h := newHarness(t, homeWith(func(n *memory.Node) {
		n.ActionErr = errors.New("option list detached")
	}, "child-age"))

	report, err := h.flow.Run(context.Background())
	require.NoError(t, err)

	passengers, ok := report.Stage(entities.StagePassengers)
	require.True(t, ok)
	assert.Equal(t, entities.StateSimulated, passengers.State)
	assert.Empty(t, h.page.Value("child-age"))
	assert.NotContains(t, report.ConfirmedValues(), entities.StagePassengers)
	assert.Contains(t, report.SimulatedStages(), entities.StagePassengers)
}

func TestShownDate(t *testing.T) {
	for shown, want := range map[string]string{
		"2025-03-14":           "2025-03-14",
		"Fri 14 Mar 2025":      "2025-03-14",
		"Friday 14 March 2025": "2025-03-14",
		"14 Mar 2025":          "2025-03-14",
		"14/03/2025":           "2025-03-14",
	} {
		got, err := shownDate(shown)
		require.NoError(t, err, shown)
		assert.Equal(t, want, got)
	}

	for _, shown := range []string{"", "14", "Select a date"} {
		_, err := shownDate(shown)
		assert.ErrorIs(t, err, entities.ErrUnconfirmed, shown)
	}
}

func TestRun_SearchFallsBackToEnter(t *testing.T) {
	h := newHarness(t, homeWith(func(n *memory.Node) {
		n.Hidden = true
	}, "search"))
	// airport stages press Enter too; only submit once passengers are set
	h.page.OnKey("Enter", func(p *memory.Page) {
		if p.Value("child-age") != "" {
			p.Replace(memory.DemoResults()...)
		}
	})

	report, err := h.flow.Run(context.Background())
	require.NoError(t, err)

	search, ok := report.Stage(entities.StageSearch)
	require.True(t, ok)
	assert.Equal(t, entities.StateConfirmed, search.State)
	assert.Equal(t, entities.ViaFallback, search.Via)
}

func TestRun_NavigationFailureHalts(t *testing.T) {
	h := newHarness(t, nil)
	h.page.OnNavigate(func(string, entities.LoadState) (time.Duration, error) {
		return 0, errors.New("net::ERR_NAME_NOT_RESOLVED")
	})

	report, err := h.flow.Run(context.Background())

	var navErr *entities.NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Len(t, navErr.Attempts, 2)
	assert.True(t, report.Halted)
	require.Len(t, report.Stages, 1)
	assert.Equal(t, entities.StateSkipped, report.Stages[0].State)
	require.NotNil(t, report.Navigation)
	assert.True(t, report.Navigation.UsedFallback())
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.flow.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Halted)
	assert.Empty(t, report.Stages)
}

func TestProbes(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.flow.NavigateHome(ctx)
	require.NoError(t, err)

	assert.True(t, h.flow.FieldVisible(ctx, DepartureField))
	assert.True(t, h.flow.FieldVisible(ctx, DestinationField))
	assert.True(t, h.flow.FieldVisible(ctx, RoomsGuestsField))
	assert.True(t, h.flow.SearchClickable(ctx))
	assert.Zero(t, h.flow.ValidationErrors(ctx).VisibleCount())

	h.page.Node("search").Disabled = true
	assert.False(t, h.flow.SearchClickable(ctx))
}

func TestStageEvents(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.flow.NavigateHome(ctx)
	require.NoError(t, err)
	_, err = h.flow.ResolveDestination(ctx)
	require.NoError(t, err)

	assert.Equal(t, []entities.StageState{
		entities.StateIdle,
		entities.StateActing,
		entities.StateConfirmed,
	}, h.recorder.Path(entities.StageNavigateHome))
	assert.Equal(t, []entities.StageState{
		entities.StateIdle,
		entities.StateOverlaysClearing,
		entities.StateResolving,
		entities.StateActing,
		entities.StateConfirmed,
	}, h.recorder.Path(entities.StageDestination))

	for _, e := range h.recorder.Events() {
		assert.Equal(t, h.flow.RunID(), e.RunID)
	}
}

func TestReturnDateStage(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.flow.NavigateHome(ctx)
	require.NoError(t, err)
	res, err := h.flow.ResolveReturnDate(ctx)
	require.NoError(t, err)

	assert.Equal(t, entities.StateConfirmed, res.State)
	assert.Equal(t, "2025-04-21", res.Value)
	assert.Contains(t, h.page.Actions(), "click:next-month")
	assert.Contains(t, h.page.Actions(), "click:inbound-day")
}

func TestRun_GuardStopsPurchase(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := newGuardedHarness(t, homeWith(func(n *memory.Node) {
		n.OnClick = func(p *memory.Page) {
			p.Replace(&memory.Node{ID: "pay", Role: "button", Name: "Continue and pay", OnClick: func(p *memory.Page) {
				t.Error("purchase control was clicked")
			}})
		}
	}, "search"), security.NewPaymentGuard(logger))

	report, err := h.flow.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrActionBlocked)
	assert.True(t, report.Halted)
	assert.Equal(t, entities.StageResults, report.StageReached)
	assert.Equal(t, "submitted", report.ConfirmedValues()[entities.StageSearch])
}
