// Package storage persists run reports, failure artifacts and browser state on disk.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

const reportExt = ".json"

type reportStore struct {
	dir string
}

// NewReportStore creates a store writing one JSON file per run into dir.
func NewReportStore(dir string) (interfaces.ReportStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &reportStore{dir: dir}, nil
}

// SaveReport - writes the report and returns its path
func (s *reportStore) SaveReport(report entities.RunReport) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("report has no run id")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(s.dir, report.RunID+reportExt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// LoadReport - reads a report by run id
func (s *reportStore) LoadReport(runID string) (entities.RunReport, error) {
	var report entities.RunReport
	data, err := os.ReadFile(filepath.Join(s.dir, runID+reportExt))
	if err != nil {
		return report, fmt.Errorf("failed to read report %s: %w", runID, err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to decode report %s: %w", runID, err)
	}
	return report, nil
}

// ListReports - returns stored run ids in name order
func (s *reportStore) ListReports() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), reportExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), reportExt))
	}
	sort.Strings(ids)
	return ids, nil
}
