package interfaces

import (
	"context"

	"booking_automation/domain/entities"
)

// ActionGuard vetoes actions that must never run against a live site
type ActionGuard interface {
	// Check returns an error wrapping entities.ErrActionBlocked to stop the action
	Check(ctx context.Context, pageURL, target string, action entities.Action) error
}
