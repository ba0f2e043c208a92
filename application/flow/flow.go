// Package flow is the orchestration surface: one entry point per booking stage and a
// Run that drives them in order into a RunReport.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"booking_automation/application/generator"
	"booking_automation/application/interaction"
	"booking_automation/application/locator"
	"booking_automation/application/navigation"
	"booking_automation/application/overlay"
	"booking_automation/application/stage"
	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

// Config is everything a flow needs to know about timing and the target site
type Config struct {
	BaseURL         string
	Navigation      navigation.Config
	Overlay         overlay.Config
	PostActionPause time.Duration
	CookieWait      time.Duration
	SearchWait      time.Duration
	ContinueWait    time.Duration
	// ReturnDate adds the return-date stage to Run.
	ReturnDate bool
	// Guard, when set, vetoes actions that would commit a purchase.
	Guard interfaces.ActionGuard
}

// DefaultConfig returns the local-run defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://www.tui.co.uk/flight/",
		Navigation:      navigation.DefaultConfig(),
		Overlay:         overlay.DefaultConfig(),
		PostActionPause: 300 * time.Millisecond,
		CookieWait:      5 * time.Second,
		SearchWait:      10 * time.Second,
		ContinueWait:    15 * time.Second,
	}
}

// Flow drives one run over a borrowed page
type Flow struct {
	page    interfaces.PageHandle
	clock   interfaces.Clock
	nav     *navigation.Controller
	locator *locator.Resolver
	runner  *stage.Runner
	events  interfaces.EventSink
	logger  logrus.FieldLogger
	cfg     Config
	report  entities.RunReport
}

// New creates a flow with freshly generated booking data and a new run id.
func New(page interfaces.PageHandle, clock interfaces.Clock, gen *generator.Generator, events interfaces.EventSink, logger logrus.FieldLogger, cfg Config) *Flow {
	runID := uuid.NewString()
	data := gen.Generate()
	log := logger.WithField("run_id", runID)
	if events == nil {
		events = nopSink{}
	}

	loc := locator.NewResolver(page, log)
	exec := interaction.NewExecutor(page, clock, log, cfg.PostActionPause)
	exec.SetGuard(cfg.Guard)
	runner := stage.NewRunner(stage.Deps{
		Page:      page,
		Overlays:  overlay.NewResolver(page, clock, cfg.Overlay, nil, log),
		Locator:   loc,
		Executor:  exec,
		Generator: gen,
		Clock:     clock,
		Events:    events,
		Logger:    log,
	}, runID, data)

	return &Flow{
		page:    page,
		clock:   clock,
		nav:     navigation.NewController(page, clock, cfg.Navigation, log),
		locator: loc,
		runner:  runner,
		events:  events,
		logger:  log,
		cfg:     cfg,
		report: entities.RunReport{
			RunID:       runID,
			StartedAt:   clock.Now(),
			BookingData: data,
		},
	}
}

type nopSink struct{}

func (nopSink) Emit(entities.StageEvent) {}

// RunID returns the run identifier carried by every event.
func (f *Flow) RunID() string {
	return f.report.RunID
}

// Data returns the booking data this run tries to enter.
func (f *Flow) Data() entities.BookingData {
	return f.report.BookingData
}

// Report returns a snapshot of the run so far.
func (f *Flow) Report() entities.RunReport {
	r := f.report
	r.Stages = append([]entities.StageResult(nil), f.report.Stages...)
	if r.FinishedAt.IsZero() {
		r.FinishedAt = f.clock.Now()
	}
	return r
}

// NavigateHome loads the base URL and waits for the page to settle.
// A *entities.NavigationError is fatal for the run.
func (f *Flow) NavigateHome(ctx context.Context) (entities.StageResult, error) {
	start := f.clock.Now()
	res := entities.StageResult{Stage: entities.StageNavigateHome, State: entities.StateIdle, Required: true}
	f.transition(&res, entities.StateActing, f.cfg.BaseURL)

	nav, err := f.nav.Navigate(ctx, f.cfg.BaseURL)
	f.report.Navigation = &nav
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		f.transition(&res, entities.StateSkipped, err.Error())
	} else {
		_ = f.nav.WaitForPageLoad(ctx)
		res.Value = f.page.URL()
		res.Via = entities.ViaPrimary
		if nav.UsedFallback() {
			res.Via = entities.ViaFallback
		}
		f.transition(&res, entities.StateConfirmed, res.Via)
	}

	res.Duration = f.clock.Now().Sub(start)
	f.record(res)
	return res, err
}

// AcceptCookies accepts the cookie banner if it shows up within the cookie wait.
func (f *Flow) AcceptCookies(ctx context.Context) (entities.StageResult, error) {
	f.awaitField(ctx, CookieAcceptField, f.cfg.CookieWait)
	res, err := f.run(ctx, f.cookieSpec())
	if res.State == entities.StateSkipped {
		f.logger.Info("No cookie banner found or already accepted")
	}
	return res, err
}

// ClearSearch clears a search remembered from a previous visit.
func (f *Flow) ClearSearch(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.clearSearchSpec())
}

// ResolveDeparture selects the departure airport, or simulates one.
func (f *Flow) ResolveDeparture(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.airportSpec(entities.StageDeparture, DepartureField,
		func(d entities.BookingData) string { return d.DepartureAirport },
		(*generator.Generator).DepartureAirport))
}

// ResolveDestination selects the destination, or simulates one.
func (f *Flow) ResolveDestination(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.airportSpec(entities.StageDestination, DestinationField,
		func(d entities.BookingData) string { return d.DestinationAirport },
		(*generator.Generator).DestinationAirport))
}

// ResolveDate selects the departure date, or simulates one.
func (f *Flow) ResolveDate(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.departureDateSpec())
}

// ResolveReturnDate selects the first available return date.
func (f *Flow) ResolveReturnDate(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.returnDateSpec())
}

// ResolvePassengers selects two adults and one child.
func (f *Flow) ResolvePassengers(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.passengersSpec())
}

// SubmitSearch submits the form, falling back to the Enter key.
func (f *Flow) SubmitSearch(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.searchSpec())
}

// ProceedThroughResults picks the first result and continues.
func (f *Flow) ProceedThroughResults(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.continueSpec(entities.StageResults, &ResultCardField))
}

// ProceedThroughFlights keeps or selects the offered flights and continues.
func (f *Flow) ProceedThroughFlights(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.continueSpec(entities.StageFlights, &SelectFlightField))
}

// ContinuePassengerDetails continues with the passenger form untouched to trigger its validation.
func (f *Flow) ContinuePassengerDetails(ctx context.Context) (entities.StageResult, error) {
	return f.run(ctx, f.continueSpec(entities.StagePassengerDetails, nil))
}

// ValidationErrors reports which passenger-details validation messages are visible.
func (f *Flow) ValidationErrors(ctx context.Context) entities.ValidationBundle {
	bundle := make(entities.ValidationBundle, len(ValidationFields))
	for _, category := range entities.ValidationCategories {
		fd := ValidationFields[category]
		bundle[category] = entities.ValidationIndicator{
			Field:   fd,
			Visible: f.locator.Visible(ctx, fd),
		}
	}
	return bundle
}

// FieldVisible probes a field without acting on it.
func (f *Flow) FieldVisible(ctx context.Context, fd entities.FieldDescriptor) bool {
	return f.locator.Visible(ctx, fd)
}

// SearchClickable reports whether the search button is visible and enabled.
func (f *Flow) SearchClickable(ctx context.Context) bool {
	return f.locator.Clickable(ctx, SearchButtonField)
}

// Run drives every stage in order. It halts on a navigation error or on a required
// stage that could not be confirmed, returning that error with the partial report.
func (f *Flow) Run(ctx context.Context) (entities.RunReport, error) {
	generator.LogBookingData(f.logger, f.report.BookingData)

	steps := []func(context.Context) (entities.StageResult, error){
		f.NavigateHome,
		f.AcceptCookies,
		f.ClearSearch,
		f.ResolveDeparture,
		f.ResolveDestination,
		f.ResolveDate,
	}
	if f.cfg.ReturnDate {
		steps = append(steps, f.ResolveReturnDate)
	}
	steps = append(steps,
		f.ResolvePassengers,
		f.SubmitSearch,
		f.ProceedThroughResults,
		f.ProceedThroughFlights,
		f.ContinuePassengerDetails,
	)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return f.halt(err)
		}
		if _, err := step(ctx); err != nil {
			return f.halt(err)
		}
	}

	validation := f.ValidationErrors(ctx)
	f.report.Validation = make(map[entities.ValidationCategory]bool, len(validation))
	for category, ind := range validation {
		f.report.Validation[category] = ind.Visible
	}
	f.report.FinishedAt = f.clock.Now()

	f.logger.WithFields(logrus.Fields{
		"stage_reached": f.report.StageReached,
		"simulated":     f.report.SimulatedStages(),
		"validation":    validation.VisibleCount(),
	}).Info("Run completed")
	return f.Report(), nil
}

func (f *Flow) halt(err error) (entities.RunReport, error) {
	f.report.Halted = true
	f.report.HaltReason = err.Error()
	f.report.FinishedAt = f.clock.Now()

	log := f.logger.WithError(err).WithField("stage_reached", f.report.StageReached)
	var navErr *entities.NavigationError
	var failure *entities.ActionFailure
	switch {
	case errors.As(err, &navErr):
		log.Error("Run halted: navigation failed")
	case errors.As(err, &failure):
		log.Error("Run halted: required action failed")
	default:
		log.Error("Run halted")
	}
	return f.Report(), err
}

func (f *Flow) run(ctx context.Context, spec stage.Spec) (entities.StageResult, error) {
	res, err := f.runner.Run(ctx, spec)
	f.record(res)
	return res, err
}

func (f *Flow) record(res entities.StageResult) {
	f.report.Stages = append(f.report.Stages, res)
	f.report.StageReached = res.Stage
}

func (f *Flow) awaitField(ctx context.Context, fd entities.FieldDescriptor, timeout time.Duration) {
	if timeout <= 0 || len(fd.Strategies) == 0 {
		return
	}
	cond := entities.WaitCondition{Target: &fd.Strategies[0]}
	if err := f.page.Wait(ctx, cond, timeout); err != nil {
		f.logger.WithField("field", fd.Name).Debug("Field did not appear")
	}
}

func (f *Flow) transition(res *entities.StageResult, to entities.StageState, detail string) {
	from := res.State
	res.State = to
	f.events.Emit(entities.StageEvent{
		RunID:  f.report.RunID,
		Stage:  res.Stage,
		From:   from,
		To:     to,
		Value:  res.Value,
		Detail: detail,
		At:     f.clock.Now(),
	})
}
