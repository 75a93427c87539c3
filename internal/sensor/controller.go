// Package sensor drives a GPIO hall-effect sensor: it sequences the probe
// and remove lifecycle (configuration, input channel, GPIO line, interrupt,
// wake source, supply rail) and turns every edge on the line into a lid
// switch report.
package sensor

import (
	"fmt"
	"log"
	"sync"

	"github.com/sweeney/hall-sensor/internal/config"
	"github.com/sweeney/hall-sensor/internal/gpio"
	"github.com/sweeney/hall-sensor/internal/power"
)

// Device identity.
const (
	DriverName = "hall_sensor"
	Compatible = "hall-switch"

	// InfoGroup names the diagnostic group holding the info attribute.
	InfoGroup = "android_hall"

	// ChipInfo is the content of the info attribute.
	ChipInfo = "IC:OCH175VAD,vendor:Unique Semi\n"
)

// Channel is the logical switch the controller publishes to.
type Channel interface {
	Register() error
	Unregister()
	ReportSwitch(code uint16, value int32) error
	Sync() error
}

// Options wires a Controller to its resources.
type Options struct {
	Chip    gpio.Chip
	Power   *power.Manager
	Wakeup  power.Wakeup
	Channel Channel

	// Metrics is optional.
	Metrics *Metrics

	// OnTransition, if set, is called after every state change.
	OnTransition func(State)
}

// Controller owns the sensor's GPIO line, interrupt binding, wake setting
// and supply rail. Probe and Remove must not run concurrently with each
// other; the state accessors may be called from any goroutine.
type Controller struct {
	chip    gpio.Chip
	power   *power.Manager
	wake    power.Wakeup
	ch      Channel
	metrics *Metrics
	observe func(State)

	// Written only by Probe and Remove. The edge handler reads cfg and line,
	// which do not change while the binding is live.
	cfg        config.SensorConfig
	registered bool
	line       gpio.Line
	binding    *gpio.Binding
	wakeArmed  bool
	rail       *power.Rail

	mu      sync.Mutex
	state   State
	failure *StepError
	history []State
}

// New creates an unconfigured controller.
func New(opts Options) *Controller {
	if opts.Wakeup == nil {
		opts.Wakeup = power.SysfsWakeup{}
	}
	return &Controller{
		chip:    opts.Chip,
		power:   opts.Power,
		wake:    opts.Wakeup,
		ch:      opts.Channel,
		metrics: opts.Metrics,
		observe: opts.OnTransition,
	}
}

// Probe brings the sensor up. Each step runs only if the previous one
// succeeded. On failure the resources taken so far are released in reverse
// order, except the input channel, which stays registered until Remove.
func (c *Controller) Probe(src config.Source) error {
	c.mu.Lock()
	if c.state != StateUnconfigured {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrBusy, st)
	}
	c.history = nil
	c.failure = nil
	c.mu.Unlock()

	log.Printf("sensor: probe begin")

	cfg, err := config.Load(src)
	if err != nil {
		log.Printf("sensor: failed to load configuration: %v", err)
		return c.fail(StateConfigLoaded, err)
	}
	c.cfg = cfg
	c.enter(StateConfigLoaded)

	if err := c.ch.Register(); err != nil {
		log.Printf("sensor: input init failed: %v", err)
		return c.fail(StateChannelRegistered, err)
	}
	c.registered = true
	c.enter(StateChannelRegistered)

	if !gpio.Valid(cfg.GPIO) {
		log.Printf("sensor: gpio %d is not valid", cfg.GPIO)
		return c.fail(StateGpioClaimed, fmt.Errorf("%w: %d", config.ErrInvalidGpio, cfg.GPIO))
	}
	line, err := c.chip.Claim(cfg.GPIO, gpio.Consumer)
	if err != nil {
		log.Printf("sensor: unable to request gpio %d: %v", cfg.GPIO, err)
		return c.fail(StateGpioClaimed, err)
	}
	c.line = line
	c.enter(StateGpioClaimed)

	b, err := gpio.Bind(line, c.handleEdge)
	if err != nil {
		log.Printf("sensor: request irq failed on gpio %d: %v", cfg.GPIO, err)
		c.releaseGPIO()
		return c.fail(StateIrqBound, err)
	}
	c.binding = b
	c.enter(StateIrqBound)

	c.armWake()
	c.enter(StateWakeArmed)

	rail, err := c.power.Acquire(power.RailName)
	if err == nil {
		err = c.power.Configure(rail, cfg.MinUV, cfg.MaxUV)
	}
	if err != nil {
		log.Printf("sensor: configure power failed: %v", err)
		c.disarmWake()
		c.unbind()
		c.releaseGPIO()
		return c.fail(StateRailConfigured, err)
	}
	c.rail = rail
	c.enter(StateRailConfigured)

	if err := c.power.Enable(rail); err != nil {
		log.Printf("sensor: power on failed: %v", err)
		c.power.Deconfigure(rail)
		c.rail = nil
		c.disarmWake()
		c.unbind()
		c.releaseGPIO()
		return c.fail(StateReady, err)
	}
	c.enter(StateReady)

	log.Printf("sensor: probe end: gpio=%d active_low=%v wakeup=%v vddio=[%d,%d]",
		cfg.GPIO, cfg.ActiveLow, cfg.Wakeup, cfg.MinUV, cfg.MaxUV)
	return nil
}

// Remove releases everything Probe acquired, in reverse order: wake source,
// interrupt, GPIO line, rail (disable, then reset its range) and finally the
// input channel. Every step is attempted; failures are logged only.
// Calling Remove on a controller that never probed, or failed part way, is
// safe.
func (c *Controller) Remove() {
	c.disarmWake()
	c.unbind()
	c.releaseGPIO()
	if c.rail != nil {
		c.power.Disable(c.rail)
		c.power.Deconfigure(c.rail)
		c.rail = nil
	}
	if c.registered {
		c.ch.Unregister()
		c.registered = false
	}
	c.enter(StateUnconfigured)
	log.Printf("sensor: removed")
}

func (c *Controller) armWake() {
	if err := c.wake.SetWakeup(c.cfg.Wakeup); err != nil {
		log.Printf("sensor: init wakeup: %v", err)
	}
	c.wakeArmed = true
}

func (c *Controller) disarmWake() {
	if !c.wakeArmed {
		return
	}
	if err := c.wake.SetWakeup(false); err != nil {
		log.Printf("sensor: disable wakeup: %v", err)
	}
	c.wakeArmed = false
}

func (c *Controller) unbind() {
	if c.binding == nil {
		return
	}
	if err := c.binding.Unbind(); err != nil {
		log.Printf("sensor: free irq: %v", err)
	}
	c.binding = nil
}

func (c *Controller) releaseGPIO() {
	if c.line == nil {
		return
	}
	if err := c.line.Close(); err != nil {
		log.Printf("sensor: free gpio %d: %v", c.cfg.GPIO, err)
	}
	c.line = nil
}

func (c *Controller) enter(s State) {
	c.mu.Lock()
	c.state = s
	c.history = append(c.history, s)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.State.Set(float64(s))
	}
	if c.observe != nil {
		c.observe(s)
	}
}

func (c *Controller) fail(step State, err error) error {
	se := &StepError{Step: step, Err: err}
	c.mu.Lock()
	c.failure = se
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.ProbeFailures.WithLabelValues(step.String()).Inc()
	}
	c.enter(StateFailed)
	return se
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure returns the error that put the controller in StateFailed, or nil.
func (c *Controller) Failure() *StepError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// History returns the states entered since the last Probe began.
func (c *Controller) History() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.history...)
}

// Config returns the loaded configuration.
func (c *Controller) Config() config.SensorConfig {
	return c.cfg
}

// Info returns the chip identification string. It is available only while
// the sensor is ready.
func (c *Controller) Info() (string, bool) {
	if c.State() != StateReady {
		return "", false
	}
	return ChipInfo, true
}
