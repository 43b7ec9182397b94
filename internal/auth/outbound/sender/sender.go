// Package sender delivers one-time passcodes over the supported channels.
package sender

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the delivery provider could not be reached or
// rejected the dispatch. The passcode row is already persisted when this
// surfaces, so callers decide whether it is fatal.
var ErrUnavailable = errors.New("sender: channel unavailable")

// Sender dispatches a one-time passcode to a destination. The ttl is the
// validity window of the code, included so the message can state it.
type Sender interface {
	Deliver(ctx context.Context, destination, code string, ttl time.Duration) error
}
