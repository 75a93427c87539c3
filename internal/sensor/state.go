package sensor

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/sweeney/hall-sensor/internal/config"
)

// State is a step in the controller's probe/remove lifecycle.
type State int

const (
	StateUnconfigured State = iota
	StateConfigLoaded
	StateChannelRegistered
	StateGpioClaimed
	StateIrqBound
	StateWakeArmed
	StateRailConfigured
	StateReady // rail enabled
	StateFailed
)

var stateNames = [...]string{
	StateUnconfigured:      "unconfigured",
	StateConfigLoaded:      "config-loaded",
	StateChannelRegistered: "channel-registered",
	StateGpioClaimed:       "gpio-claimed",
	StateIrqBound:          "irq-bound",
	StateWakeArmed:         "wake-armed",
	StateRailConfigured:    "rail-configured",
	StateReady:             "ready",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrBusy is returned by Probe on a controller that has not been removed.
var ErrBusy = errors.New("sensor: already probed")

// StepError records which probe step failed. Step is the state the step
// would have entered.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sensor: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Code returns the integer cause of a probe error: the errno found in the
// chain, ENODEV when no configuration source was given, EBUSY for a repeated
// probe and EINVAL otherwise. A nil error is 0.
func Code(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if errors.Is(err, config.ErrNoPlatformData) {
		return syscall.ENODEV
	}
	if errors.Is(err, ErrBusy) {
		return syscall.EBUSY
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EINVAL
}
