package interfaces

import (
	"context"
	"time"
)

// Clock provides time and pauses so settle intervals can be faked in tests
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// Sleep pauses for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}
