package power

import "fmt"

// Wakeup controls whether the sensor's interrupt may resume a suspended
// system.
type Wakeup interface {
	SetWakeup(enabled bool) error
}

// SysfsWakeup drives a device's power/wakeup attribute, e.g.
// /sys/bus/platform/devices/hall/power/wakeup. An empty Path disables
// wake control.
type SysfsWakeup struct {
	Path string
}

func (w SysfsWakeup) SetWakeup(enabled bool) error {
	if w.Path == "" {
		return nil
	}
	v := "disabled"
	if enabled {
		v = "enabled"
	}
	if err := writeAttr(w.Path, v); err != nil {
		return fmt.Errorf("set wakeup %s: %w", v, err)
	}
	return nil
}
