// Command hall-sensor drives a GPIO hall-effect lid sensor and publishes its
// switch events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/hall-sensor/internal/config"
	"github.com/sweeney/hall-sensor/internal/gpio"
	"github.com/sweeney/hall-sensor/internal/input"
	"github.com/sweeney/hall-sensor/internal/journal"
	"github.com/sweeney/hall-sensor/internal/mqtt"
	"github.com/sweeney/hall-sensor/internal/power"
	"github.com/sweeney/hall-sensor/internal/sensor"
	"github.com/sweeney/hall-sensor/internal/status"
	"github.com/sweeney/hall-sensor/internal/web"
)

type options struct {
	dtNode        string
	platform      config.PlatformData
	chip          string
	regulatorRoot string
	wakeupPath    string
	broker        string
	httpAddr      string
	journalPath   string
	refresh       time.Duration
	printState    bool
}

func main() {
	var o options
	flag.StringVar(&o.dtNode, "dt-node", "", "Device-tree node directory to read properties from (overrides the platform flags)")
	flag.IntVar(&o.platform.GPIO, "gpio", -1, "GPIO line offset")
	flag.BoolVar(&o.platform.ActiveLow, "active-low", false, "Line is active low")
	flag.BoolVar(&o.platform.Wakeup, "wakeup", false, "Sensor may wake the system")
	minUV := flag.Uint("min-uv", 0, "vddio minimum voltage in microvolts")
	maxUV := flag.Uint("max-uv", 0, "vddio maximum voltage in microvolts")
	flag.StringVar(&o.chip, "gpio-chip", "gpiochip0", "GPIO character device")
	flag.StringVar(&o.regulatorRoot, "regulator-root", "/sys/class/regulator-consumer/hall", "Directory holding the supply attributes")
	flag.StringVar(&o.wakeupPath, "wakeup-path", "", "power/wakeup attribute of the device (empty disables)")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.journalPath, "journal", "/var/lib/hall-sensor/journal.db", "Event journal path (empty to disable)")
	flag.DurationVar(&o.refresh, "refresh", 5*time.Second, "Status refresh interval")
	flag.BoolVar(&o.printState, "print-state", false, "Print current state and exit")

	flag.Parse()
	o.platform.MinUV = uint32(*minUV)
	o.platform.MaxUV = uint32(*maxUV)

	if err := run(o); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(exitCode(err))
	}
}

// buildSource selects the device-tree node when one is given, the platform
// flags otherwise.
func buildSource(dtNode string, pd config.PlatformData) config.Source {
	if dtNode != "" {
		return config.Source{Store: config.DTNode{Dir: dtNode}}
	}
	return config.Source{Platform: &pd}
}

// exitCode maps a probe failure to its errno, so callers see the same code
// the driver model would return.
func exitCode(err error) int {
	var se *sensor.StepError
	if !errors.As(err, &se) {
		return 1
	}
	if code := int(sensor.Code(err)); code > 0 && code < 256 {
		return code
	}
	return 1
}

func run(o options) error {
	src := buildSource(o.dtNode, o.platform)

	chip, err := gpio.OpenChip(o.chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	if o.printState {
		return printState(os.Stdout, chip, src)
	}

	publisher, err := mqtt.NewRealPublisher(o.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		GPIO:      o.platform.GPIO,
		ActiveLow: o.platform.ActiveLow,
		Wakeup:    o.platform.Wakeup,
		MinUV:     o.platform.MinUV,
		MaxUV:     o.platform.MaxUV,
		Broker:    o.broker,
		HTTPAddr:  o.httpAddr,
	})

	sinks := input.Sinks{publisher, tracker}
	var events web.EventSource
	if o.journalPath != "" {
		j, err := journal.Open(o.journalPath)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer j.Close()
		sinks = append(sinks, j)
		events = j
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctrl := sensor.New(sensor.Options{
		Chip:    chip,
		Power:   power.NewManager(power.SysfsProvider{Root: o.regulatorRoot}),
		Wakeup:  power.SysfsWakeup{Path: o.wakeupPath},
		Channel: input.NewDevice(sinks, nil),
		Metrics: sensor.NewMetrics(reg),
		OnTransition: func(s sensor.State) {
			tracker.SetLifecycle(s.String())
		},
	})

	if err := ctrl.Probe(src); err != nil {
		ctrl.Remove()
		return fmt.Errorf("probe %s: %w", sensor.DriverName, err)
	}
	tracker.SetConfig(trackerConfig(ctrl.Config(), o))
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, web.Options{Info: ctrl, Events: events, Metrics: reg})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: driver=%s compatible=%s broker=%s", sensor.DriverName, sensor.Compatible, o.broker)

	ticker := time.NewTicker(o.refresh)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, time.Now, ticker.C, sigCh)
}

func trackerConfig(cfg config.SensorConfig, o options) status.Config {
	return status.Config{
		GPIO:      cfg.GPIO,
		ActiveLow: cfg.ActiveLow,
		Wakeup:    cfg.Wakeup,
		MinUV:     cfg.MinUV,
		MaxUV:     cfg.MaxUV,
		Broker:    o.broker,
		HTTPAddr:  o.httpAddr,
	}
}

// remover is the part of the controller the loop needs at shutdown.
type remover interface {
	Remove()
}

func runLoop(ctrl remover, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			ctrl.Remove()
			return nil

		case <-tick:
			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}

// printState claims the line once, reads it and prints the lid state.
func printState(w io.Writer, chip gpio.Chip, src config.Source) error {
	cfg, err := config.Load(src)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !gpio.Valid(cfg.GPIO) {
		return fmt.Errorf("%w: %d", config.ErrInvalidGpio, cfg.GPIO)
	}
	line, err := chip.Claim(cfg.GPIO, gpio.Consumer)
	if err != nil {
		return err
	}
	defer line.Close()

	raw, err := line.Value()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	value := sensor.Logical(raw, cfg.ActiveLow)
	fmt.Fprintf(w, "%s: %s (gpio %d raw %d)\n", input.DeviceName, input.StateName(value), cfg.GPIO, raw)
	return nil
}
