package salesforce

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FatalConfigError marks a non-recoverable misconfiguration (bad credentials,
// missing topic, absent schema). Supervisors stop instead of reconnecting.
type FatalConfigError struct {
	Reason string
}

func (e *FatalConfigError) Error() string {
	return e.Reason
}

func fatalf(format string, args ...interface{}) error {
	return &FatalConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err (or anything it wraps) is a FatalConfigError.
func IsFatal(err error) bool {
	var fatal *FatalConfigError
	return errors.As(err, &fatal)
}

// ErrIdleTimeout is raised by the watchdog when the stream has been silent
// past the idle-reset window. Transient: the supervisor reconnects.
var ErrIdleTimeout = errors.New("idle timeout: no messages from broker")

// InvalidReplayError wraps a broker rejection of the replay id we resumed
// from. The stored cursor must be cleared and the stream restarted from
// EARLIEST.
type InvalidReplayError struct {
	Detail string
}

func (e *InvalidReplayError) Error() string {
	return fmt.Sprintf("broker rejected replay id: %s", e.Detail)
}

// IsInvalidReplay reports whether err indicates a corrupt or expired replay
// id, either via our own wrapper or the broker's error text.
func IsInvalidReplay(err error) bool {
	var ir *InvalidReplayError
	if errors.As(err, &ir) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		msg := strings.ToLower(s.Message())
		return strings.Contains(msg, "replay id") && (strings.Contains(msg, "invalid") || strings.Contains(msg, "corrupt") || strings.Contains(msg, "expired"))
	}
	return false
}

// classifyRPC maps a GetTopic/GetSchema error onto the fatal/transient split.
func classifyRPC(err error, op string, failFastNotFound, failFastAuth bool) error {
	s, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch s.Code() {
	case codes.NotFound, codes.PermissionDenied:
		if failFastNotFound {
			return fatalf("%s failed (%s): %s", op, s.Code(), s.Message())
		}
	case codes.Unauthenticated:
		if failFastAuth {
			return fatalf("%s unauthenticated: %s", op, s.Message())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
