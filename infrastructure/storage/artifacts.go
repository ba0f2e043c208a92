package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"booking_automation/domain/interfaces"
)

// WriteFailureArtifacts saves a full-page screenshot and the page source of a failed run.
// It returns the paths that were written; a page that is already closed yields none.
func WriteFailureArtifacts(ctx context.Context, page interfaces.PageHandle, dir, runID string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var written []string
	var errs []error

	shot := filepath.Join(dir, runID+"-failure.png")
	if err := page.Screenshot(ctx, shot, true); err != nil {
		errs = append(errs, fmt.Errorf("screenshot: %w", err))
	} else {
		written = append(written, shot)
	}

	source := filepath.Join(dir, runID+"-page.html")
	content, err := page.Content(ctx)
	if err == nil {
		err = os.WriteFile(source, []byte(content), 0644)
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("page source: %w", err))
	} else {
		written = append(written, source)
	}

	return written, errors.Join(errs...)
}
