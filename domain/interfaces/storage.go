package interfaces

import "booking_automation/domain/entities"

// ReportStore persists run reports for the external reporting collaborator
type ReportStore interface {
	// SaveReport stores a report and returns its location
	SaveReport(report entities.RunReport) (string, error)

	// LoadReport loads a report by run id
	LoadReport(runID string) (entities.RunReport, error)

	// ListReports returns the run ids of every stored report
	ListReports() ([]string, error)
}
