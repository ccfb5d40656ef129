// Command usb-selector runs the dual-port USB selector appliance: it
// polls the panel buttons and the analog sensor, drives the relay, port
// mux and status lamp, and publishes events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/usb-selector/internal/config"
	"github.com/sweeney/usb-selector/internal/control"
	"github.com/sweeney/usb-selector/internal/hal"
	"github.com/sweeney/usb-selector/internal/mqtt"
	"github.com/sweeney/usb-selector/internal/status"
	"github.com/sweeney/usb-selector/internal/store"
	"github.com/sweeney/usb-selector/internal/web"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default "+config.DefaultConfigFile+" if present)")
	broker := flag.String("broker", "", "MQTT broker address (enables MQTT, overrides config)")
	stateDir := flag.String("state-dir", "", "Persistent state directory (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (enables the server, overrides config)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Status heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print the restored state and exit")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = *broker
	}
	if *stateDir != "" {
		cfg.StateDir = *stateDir
	}
	if *httpAddr != "" {
		cfg.HTTPServer.Enabled = true
		cfg.HTTPServer.Addr = *httpAddr
	}

	if err := run(cfg, *heartbeat, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, heartbeat time.Duration, printState bool) error {
	poll, err := cfg.PollIntervalDuration()
	if err != nil {
		return err
	}
	pwmPeriod, err := cfg.PWMPeriod()
	if err != nil {
		return err
	}

	// Restore persisted state before touching hardware so --print-state
	// works on a development machine.
	fileStore, err := store.NewFileStore(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("init state dir: %w", err)
	}
	loaded := store.LoadSettings(fileStore)

	if printState {
		fmt.Printf("port: %s\n", loaded.Port)
		fmt.Printf("upper_threshold: %d\n", loaded.Settings.UpperThreshold)
		fmt.Printf("lower_threshold: %d\n", loaded.Settings.LowerThreshold)
		fmt.Printf("latch_time: %s\n", loaded.Settings.LatchTime)
		for _, s := range loaded.Invalid {
			fmt.Printf("invalid: %s (default restored)\n", s)
		}
		return nil
	}

	// Initialize hardware
	outputs, err := hal.NewRealOutputs(cfg.OutputPins(), cfg.PWM.Dir, pwmPeriod)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer outputs.Close()

	inputs, err := hal.NewRealInputs(cfg.Pins.ButtonSelect, cfg.Pins.ButtonUp, cfg.Pins.ButtonDown)
	if err != nil {
		return failInit(outputs, fmt.Errorf("init inputs: %w", err))
	}
	defer inputs.Close()

	sensor, err := hal.NewRealSensor(cfg.Sensor.Path)
	if err != nil {
		return failInit(outputs, fmt.Errorf("init sensor: %w", err))
	}
	defer sensor.Close()

	// Corrupt stored settings get the panel cue, once per field.
	lamp := statusLamp{outputs}
	for _, s := range loaded.Invalid {
		log.Printf("stored %s invalid, default restored", s)
		control.StartupErrorBlink(lamp, time.Sleep)
	}

	ctrl := control.NewController(loaded.Settings, loaded.Port,
		relayLine{outputs}, portLines{outputs}, lamp,
		store.SettingsWriter{S: fileStore})
	ctrl.Start()

	// Initialize MQTT. A dead broker must not keep the selector from
	// switching ports, so a failed connect only disables telemetry.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix)
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher = p
			mqttStatus = p
			defer p.Close()
		}
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPServer.Addr,
		StateDir:    cfg.StateDir,
	})
	tracker.Update(ctrl.ActivePort(), ctrl.RelayState(), ctrl.SetupMode(), ctrl.Settings(), ctrl.Reading(), ctrl.InvalidSamples(), nil)

	if publisher != nil {
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
	}

	// Start HTTP status server
	if cfg.HTTPServer.Enabled {
		srv := web.New(cfg.HTTPServer.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPServer.Addr)
	}

	log.Printf("started: poll=%v port=%s upper=%d lower=%d latch=%v",
		poll, loaded.Port, loaded.Settings.UpperThreshold, loaded.Settings.LowerThreshold, loaded.Settings.LatchTime)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, inputs, sensor, hal.NewSysClock(), publisher, mqttStatus, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *control.Controller, inputs hal.Inputs, sensor hal.Sensor, clock hal.Clock, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	lastSensorErr := ""

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
			if publisher != nil {
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
			}
			return nil

		case <-tick:
			t := now()
			levels, err := inputs.Read()
			if err != nil {
				log.Printf("button read error: %v", err)
				continue
			}

			// Pick up whatever conversion completed since the last pass
			// and trigger the next one. On a miss the core reuses the
			// last completed reading.
			reading, fresh := sensor.Latest()
			sensor.StartConversion()
			if ec, ok := sensor.(interface{ Err() error }); ok {
				logSensorErr(ec.Err(), &lastSensorErr)
			}

			events := ctrl.Tick(control.Input{
				Select:      levels.Select,
				Up:          levels.Up,
				Down:        levels.Down,
				Sensor:      reading,
				SensorValid: fresh,
				Now:         control.Micros(clock.Now()),
			})

			for _, event := range events {
				logEvent(event)
				if publisher != nil {
					if err := publisher.Publish(t, event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			// Update status tracker for HTTP/MQTT consumers
			if tracker != nil {
				tracker.Update(ctrl.ActivePort(), ctrl.RelayState(), ctrl.SetupMode(), ctrl.Settings(), ctrl.Reading(), ctrl.InvalidSamples(), events)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					log.Printf("heartbeat: uptime=%v port=%s relay=%s reading=%d",
						snap.Uptime().Round(time.Second), snap.Port, snap.Relay, snap.Reading)
				}
				if publisher != nil {
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

// logEvent writes one line per control event, with the fields that apply
// to its type.
func logEvent(event control.Event) {
	switch event.Type {
	case control.EventPortSwitched, control.EventPortSaved:
		log.Printf("event: %s port=%s", event.Type, event.Port)
	case control.EventRelayHigh, control.EventRelayLow:
		log.Printf("event: %s reading=%d", event.Type, event.Value)
	case control.EventSetupEntered, control.EventSetupExited:
		log.Printf("event: %s mode=%s", event.Type, event.Mode)
	case control.EventLimitReached:
		log.Printf("event: %s mode=%s value=%d", event.Type, event.Mode, event.Value)
	case control.EventSettingSaved, control.EventThresholdCaptured:
		log.Printf("event: %s %s=%d", event.Type, event.Setting, event.Value)
	default:
		log.Printf("event: %s", event.Type)
	}
	if event.Err != nil {
		log.Printf("persist error after %s: %v", event.Type, event.Err)
	}
}

// logSensorErr logs sampling errors on change only. The sensor is read
// every few milliseconds and a broken channel stays broken.
func logSensorErr(err error, last *string) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == *last {
		return
	}
	if msg != "" {
		log.Printf("sensor error: %s", msg)
	} else {
		log.Printf("sensor recovered")
	}
	*last = msg
}

// failInit runs the hardware fault flash until SIGINT/SIGTERM, then
// returns the original error. With inputs or sensor gone there is
// nothing to control, but the panel can still say so.
func failInit(out hal.Outputs, err error) error {
	log.Printf("hardware init failed: %v", err)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	flashInitFailure(out, sigCh, ticker.C)
	return err
}

// flashInitFailure alternates both port LEDs and the status lamp until a
// termination signal arrives.
func flashInitFailure(out hal.Outputs, sig <-chan os.Signal, tick <-chan time.Time) {
	on := true
	for {
		out.SetPortLEDs(on, on)
		duty := control.DutyDark
		if on {
			duty = control.DutyBright
		}
		out.SetStatusDuty(duty)
		on = !on

		select {
		case <-sig:
			return
		case <-tick:
		}
	}
}

// relayLine adapts hal.Outputs to the core's relay interface. Write
// errors are logged; the core keeps its own notion of the contact state.
type relayLine struct{ out hal.Outputs }

func (l relayLine) Set(closed bool) {
	if err := l.out.SetRelay(closed); err != nil {
		log.Printf("relay write error: %v", err)
	}
}

func (l relayLine) Closed() bool { return l.out.Relay() }

// portLines adapts hal.Outputs to the core's port switch interface.
type portLines struct{ out hal.Outputs }

func (l portLines) Apply(p control.Port) {
	if err := l.out.SelectPort(p == control.PortB); err != nil {
		log.Printf("port switch error: %v", err)
	}
}

// statusLamp adapts hal.Outputs to the core's PWM interface.
type statusLamp struct{ out hal.Outputs }

func (l statusLamp) SetDuty(duty uint16) {
	if err := l.out.SetStatusDuty(duty); err != nil {
		log.Printf("status lamp write error: %v", err)
	}
}
