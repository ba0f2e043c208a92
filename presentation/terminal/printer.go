// Package terminal renders run reports and booking data for people at a terminal.
package terminal

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"booking_automation/domain/entities"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// Printer writes colored output. Reports from parallel runs are printed whole, never interleaved.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) section(title string) {
	fmt.Fprintln(p.out)
	headerColor.Fprintf(p.out, "▸ %s\n", title)
}

func (p *Printer) labelValue(label, value string) {
	labelColor.Fprintf(p.out, "  %s: ", label)
	fmt.Fprintln(p.out, value)
}

// PrintBookingData prints the values a run will try to enter
func (p *Printer) PrintBookingData(data entities.BookingData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printBookingData(data)
}

func (p *Printer) printBookingData(data entities.BookingData) {
	p.section("Booking data")
	p.labelValue("Departure", data.DepartureAirport)
	p.labelValue("Destination", data.DestinationAirport)
	p.labelValue("Date", data.DepartureDateString())
	p.labelValue("Passengers", data.Passengers())
}

// PrintReport prints one run: its data, every stage outcome and the validation findings.
// location is where the report was stored and may be empty.
func (p *Printer) PrintReport(report entities.RunReport, location string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.section("Run " + report.RunID)
	p.labelValue("Duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String())
	if report.Navigation != nil && report.Navigation.UsedFallback() {
		warningColor.Fprintln(p.out, "  ⚠ navigation needed the fallback attempt")
	}
	p.printBookingData(report.BookingData)

	p.section("Stages")
	for _, s := range report.Stages {
		p.printStage(s)
	}

	if len(report.Validation) > 0 {
		p.section("Validation messages")
		categories := make([]string, 0, len(report.Validation))
		for c := range report.Validation {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		for _, c := range categories {
			if report.Validation[entities.ValidationCategory(c)] {
				successColor.Fprintf(p.out, "  ✓ %s\n", c)
			} else {
				dimColor.Fprintf(p.out, "  - %s\n", c)
			}
		}
	}

	fmt.Fprintln(p.out)
	if report.Halted {
		errorColor.Fprintf(p.out, "✗ Halted at %s: %s\n", report.StageReached, report.HaltReason)
	} else {
		successColor.Fprintf(p.out, "✓ Reached %s\n", report.StageReached)
	}
	if simulated := report.SimulatedStages(); len(simulated) > 0 {
		names := make([]string, len(simulated))
		for i, s := range simulated {
			names[i] = string(s)
		}
		warningColor.Fprintf(p.out, "⚠ Simulated: %s\n", strings.Join(names, ", "))
	}
	if location != "" {
		dimColor.Fprintf(p.out, "Report saved to %s\n", location)
	}
}

func (p *Printer) printStage(s entities.StageResult) {
	var mark string
	var c *color.Color
	switch s.State {
	case entities.StateConfirmed:
		mark, c = "✓", successColor
	case entities.StateSimulated:
		mark, c = "~", warningColor
	default:
		mark, c = "✗", errorColor
		if !s.Required {
			c = dimColor
		}
	}

	c.Fprintf(p.out, "  %s %-18s %-10s", mark, s.Stage, s.State)
	if s.Value != "" {
		fmt.Fprintf(p.out, " %s", s.Value)
	}
	if s.Via == entities.ViaFallback {
		dimColor.Fprint(p.out, " (fallback)")
	}
	fmt.Fprintln(p.out)
	if s.Error != "" && !s.Confirmed() {
		dimColor.Fprintf(p.out, "      %s\n", s.Error)
	}
}

// PrintSummary prints one line per run and a closing tally
func (p *Printer) PrintSummary(reports []entities.RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.section("Summary")
	runs, halted := 0, 0
	for _, r := range reports {
		if r.RunID == "" {
			continue
		}
		runs++
		if r.Halted {
			halted++
			errorColor.Fprintf(p.out, "  ✗ %s halted at %s\n", r.RunID, r.StageReached)
			continue
		}
		successColor.Fprintf(p.out, "  ✓ %s reached %s", r.RunID, r.StageReached)
		if n := len(r.SimulatedStages()); n > 0 {
			warningColor.Fprintf(p.out, " (%d simulated)", n)
		}
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "\n%d runs, %d halted\n", runs, halted)
}

// PrintRunIDs lists stored run ids
func (p *Printer) PrintRunIDs(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(ids) == 0 {
		dimColor.Fprintln(p.out, "No reports stored")
		return
	}
	p.section(fmt.Sprintf("Reports (%d)", len(ids)))
	for _, id := range ids {
		fmt.Fprintf(p.out, "  %s\n", id)
	}
}
