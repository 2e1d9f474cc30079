package cafefinder

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type LocationState string

const (
	LocationIdle      LocationState = "idle"
	LocationPrompting LocationState = "prompting"
	LocationAcquiring LocationState = "acquiring"
	LocationReady     LocationState = "ready"
	LocationFailed    LocationState = "failed"
)

// FailureKind classifies why an acquisition failed.
type FailureKind string

const (
	FailureUnsupported FailureKind = "unsupported"
	FailureDenied      FailureKind = "denied"
	FailureUnavailable FailureKind = "unavailable"
	FailureTimeout     FailureKind = "timeout"
	FailureLookup      FailureKind = "lookup"
)

const (
	reasonUnsupported = "Geolocation is not supported by your browser"
	reasonPermission  = "Unable to retrieve your location. Please enable location permissions."
	reasonLookup      = "Unable to find a location for that address."
)

// Reason is the user-facing message for k.
func (k FailureKind) Reason() string {
	switch k {
	case FailureUnsupported:
		return reasonUnsupported
	case FailureLookup:
		return reasonLookup
	case "":
		return ""
	}
	return reasonPermission
}

// Retryable is false only when retrying cannot change the outcome.
func (k FailureKind) Retryable() bool {
	return k != FailureUnsupported
}

// FailureKindOf maps a Locator error to its kind. Unknown errors count as
// an unavailable position.
func FailureKindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrUnsupported):
		return FailureUnsupported
	case errors.Is(err, ErrPermissionDenied):
		return FailureDenied
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrAddressNotFound):
		return FailureLookup
	}
	return FailureUnavailable
}

var (
	ErrInvalidTransition = errors.New("invalid location transition")
	ErrNotRetryable      = errors.New("location failure is not retryable")
)

// LocationFlow tracks acquisition of the session's reference position.
// Every acquisition start bumps Generation; completions carrying an older
// generation are stale and must be dropped.
type LocationFlow struct {
	State      LocationState `json:"state"`
	Failure    FailureKind   `json:"failure,omitempty"`
	Position   *Position     `json:"position,omitempty"`
	AcquiredAt *time.Time    `json:"acquiredAt,omitempty"`
	Generation uint64        `json:"generation"`
}

func NewLocationFlow() LocationFlow {
	return LocationFlow{State: LocationIdle}
}

// Prompt moves an untouched flow to prompting. It reports whether the state
// changed.
func (f *LocationFlow) Prompt() bool {
	if f.State != LocationIdle || f.Position != nil || f.Failure != "" {
		return false
	}
	f.State = LocationPrompting
	return true
}

// Accept starts the acquisition the user consented to.
func (f *LocationFlow) Accept() (uint64, error) {
	if f.State != LocationPrompting {
		return 0, fmt.Errorf("%w: accept from %s", ErrInvalidTransition, f.State)
	}
	return f.start(), nil
}

// Retry restarts acquisition after a retryable failure.
func (f *LocationFlow) Retry() (uint64, error) {
	if f.State != LocationFailed {
		return 0, fmt.Errorf("%w: retry from %s", ErrInvalidTransition, f.State)
	}
	if !f.Failure.Retryable() {
		return 0, ErrNotRetryable
	}
	return f.start(), nil
}

// Relocate starts an acquisition from any state but idle, superseding one
// already in flight. It backs explicit address lookups.
func (f *LocationFlow) Relocate() (uint64, error) {
	if f.State == LocationIdle {
		return 0, fmt.Errorf("%w: relocate from %s", ErrInvalidTransition, f.State)
	}
	return f.start(), nil
}

func (f *LocationFlow) start() uint64 {
	f.Generation++
	f.State = LocationAcquiring
	f.Failure = ""
	return f.Generation
}

// Succeed completes acquisition gen with pos. Stale or unexpected
// completions are ignored and reported as false.
func (f *LocationFlow) Succeed(gen uint64, pos Position, at time.Time) bool {
	if !f.current(gen) {
		return false
	}
	f.State = LocationReady
	f.Failure = ""
	f.Position = &pos
	f.AcquiredAt = &at
	return true
}

// Fail completes acquisition gen with a failure. A previously acquired
// position is kept so the list can still show distances.
func (f *LocationFlow) Fail(gen uint64, kind FailureKind) bool {
	if !f.current(gen) {
		return false
	}
	f.State = LocationFailed
	f.Failure = kind
	return true
}

func (f *LocationFlow) current(gen uint64) bool {
	return f.State == LocationAcquiring && gen == f.Generation
}

// Reason is the user-facing failure message, empty unless failed.
func (f LocationFlow) Reason() string {
	if f.State != LocationFailed {
		return ""
	}
	return f.Failure.Reason()
}

// Retryable reports whether a retry action should be offered.
func (f LocationFlow) Retryable() bool {
	return f.State == LocationFailed && f.Failure.Retryable()
}
