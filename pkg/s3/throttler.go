package s3

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttler is consulted before a network operation is issued. Implementations
// are shared between many clients and owned by the caller; this package only
// reads them. *rate.Limiter satisfies the interface.
type Throttler interface {
	WaitN(ctx context.Context, n int) error
}

var _ Throttler = (*rate.Limiter)(nil)
