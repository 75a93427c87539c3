// Package config loads the sensor configuration from a device-tree style
// property store or from a fixed platform-data record.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/hall-sensor/internal/gpio"
)

// Property names, as found under the sensor's device-tree node.
const (
	PropGPIO   = "linux,gpio-int"
	PropWakeup = "linux,wakeup"
	PropMaxUV  = "linux,max-uv"
	PropMinUV  = "linux,min-uv"
)

// FlagActiveLow is bit 0 of the gpio specifier flags cell.
const FlagActiveLow = 0x1

var (
	// ErrInvalidGpio means the configured line is not addressable.
	ErrInvalidGpio = errors.New("config: gpio is not valid")

	// ErrMissingVoltageBound means min-uv or max-uv is absent.
	ErrMissingVoltageBound = errors.New("config: missing voltage bound")

	// ErrNoPlatformData means neither a property store nor platform data
	// was supplied.
	ErrNoPlatformData = errors.New("config: no valid platform data")
)

// SensorConfig is the loaded configuration. It is not modified after Load.
// MinUV <= MaxUV is expected but not checked.
type SensorConfig struct {
	GPIO      int
	ActiveLow bool
	Wakeup    bool
	MinUV     uint32
	MaxUV     uint32
}

// PropertyStore is a read-only key/value view of a device node.
type PropertyStore interface {
	// GPIO returns the line offset and flags cell of a gpio specifier.
	GPIO(name string) (offset int, flags uint32, err error)

	// U32 returns a 32-bit property. A missing property is an error.
	U32(name string) (uint32, error)

	// Bool reports whether a boolean (presence) property is set.
	Bool(name string) bool
}

// PlatformData is the fixed-layout record used when no property store is
// available.
type PlatformData struct {
	GPIO      int
	ActiveLow bool
	Wakeup    bool
	MinUV     uint32
	MaxUV     uint32
}

// Source selects where the configuration comes from. Store takes
// precedence over Platform.
type Source struct {
	Store    PropertyStore
	Platform *PlatformData
}

// Load produces a SensorConfig from src.
func Load(src Source) (SensorConfig, error) {
	switch {
	case src.Store != nil:
		return parse(src.Store)
	case src.Platform != nil:
		// Taken as is. The line is checked when it is claimed.
		return SensorConfig(*src.Platform), nil
	default:
		return SensorConfig{}, ErrNoPlatformData
	}
}

func parse(store PropertyStore) (SensorConfig, error) {
	var cfg SensorConfig

	offset, flags, err := store.GPIO(PropGPIO)
	if err != nil {
		log.Printf("config: hall gpio is not valid: %v", err)
		return SensorConfig{}, fmt.Errorf("%w: %w", ErrInvalidGpio, err)
	}
	cfg.GPIO = offset
	cfg.ActiveLow = flags&FlagActiveLow != 0
	if err := validate(cfg); err != nil {
		return SensorConfig{}, err
	}

	cfg.Wakeup = store.Bool(PropWakeup)

	if cfg.MaxUV, err = store.U32(PropMaxUV); err != nil {
		log.Printf("config: unable to read max-uv: %v", err)
		return SensorConfig{}, fmt.Errorf("%w: %s: %w", ErrMissingVoltageBound, PropMaxUV, err)
	}
	if cfg.MinUV, err = store.U32(PropMinUV); err != nil {
		log.Printf("config: unable to read min-uv: %v", err)
		return SensorConfig{}, fmt.Errorf("%w: %s: %w", ErrMissingVoltageBound, PropMinUV, err)
	}

	return cfg, nil
}

func validate(cfg SensorConfig) error {
	if !gpio.Valid(cfg.GPIO) {
		return fmt.Errorf("%w: %d", ErrInvalidGpio, cfg.GPIO)
	}
	return nil
}
