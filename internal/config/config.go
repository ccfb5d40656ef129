// Package config loads the appliance configuration from a TOML file,
// falling back to built-in defaults when no file exists. Command-line
// flags override individual fields after loading.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/usb-selector/internal/hal"
)

// DefaultConfigFile is looked up in the working directory when no path
// is given.
const DefaultConfigFile = "usb-selector.toml"

// Config is the full appliance configuration.
type Config struct {
	// PollInterval is the control loop period, e.g. "5ms".
	PollInterval string `toml:"poll_interval"`

	// StateDir holds the persisted configuration blocks.
	StateDir string `toml:"state_dir"`

	MQTT struct {
		Enabled     bool   `toml:"enabled"`
		Broker      string `toml:"broker"`
		ClientID    string `toml:"client_id"`
		TopicPrefix string `toml:"topic_prefix"`
	} `toml:"mqtt"`

	HTTPServer struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"http_server"`

	Pins struct {
		ButtonSelect int `toml:"button_select"`
		ButtonUp     int `toml:"button_up"`
		ButtonDown   int `toml:"button_down"`
		Relay        int `toml:"relay"`
		PortPowerA   int `toml:"port_power_a"`
		PortPowerB   int `toml:"port_power_b"`
		MuxSelect    int `toml:"mux_select"`
		MuxEnable    int `toml:"mux_enable"`
		LEDPortA     int `toml:"led_port_a"`
		LEDPortB     int `toml:"led_port_b"`
	} `toml:"pins"`

	Sensor struct {
		// Path is the IIO raw channel file.
		Path string `toml:"path"`
	} `toml:"sensor"`

	PWM struct {
		// Dir is the exported sysfs PWM channel directory.
		Dir    string `toml:"dir"`
		Period string `toml:"period"`
	} `toml:"pwm"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	cfg := &Config{
		PollInterval: "5ms",
		StateDir:     "/var/lib/usb-selector",
	}
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "usb-selector"
	cfg.MQTT.TopicPrefix = "devices/usb-selector"
	cfg.HTTPServer.Addr = ":8090"
	cfg.Pins.ButtonSelect = hal.PinButtonSelect
	cfg.Pins.ButtonUp = hal.PinButtonUp
	cfg.Pins.ButtonDown = hal.PinButtonDown
	cfg.Pins.Relay = hal.PinRelay
	cfg.Pins.PortPowerA = hal.PinPortPowerA
	cfg.Pins.PortPowerB = hal.PinPortPowerB
	cfg.Pins.MuxSelect = hal.PinMuxSelect
	cfg.Pins.MuxEnable = hal.PinMuxEnable
	cfg.Pins.LEDPortA = hal.PinLEDPortA
	cfg.Pins.LEDPortB = hal.PinLEDPortB
	cfg.Sensor.Path = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
	cfg.PWM.Dir = "/sys/class/pwm/pwmchip0/pwm0"
	cfg.PWM.Period = "1ms"
	return cfg
}

// LoadConfig loads the configuration with the following precedence:
// the given path if set, else the default file if present, else the
// built-in defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	filePath := path
	if filePath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			filePath = DefaultConfigFile
		} else {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(filePath, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", filePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	return cfg, nil
}

// Validate checks the parseable fields.
func (c *Config) Validate() error {
	if _, err := c.PollIntervalDuration(); err != nil {
		return err
	}
	if _, err := c.PWMPeriod(); err != nil {
		return err
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt enabled without a broker")
	}
	return nil
}

// PollIntervalDuration parses the control loop period.
func (c *Config) PollIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("poll_interval must be positive, got %s", d)
	}
	return d, nil
}

// PWMPeriod parses the PWM period.
func (c *Config) PWMPeriod() (time.Duration, error) {
	d, err := time.ParseDuration(c.PWM.Period)
	if err != nil {
		return 0, fmt.Errorf("pwm period: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("pwm period must be positive, got %s", d)
	}
	return d, nil
}

// OutputPins maps the pin table onto the HAL's output wiring.
func (c *Config) OutputPins() hal.OutputPins {
	return hal.OutputPins{
		Relay:      c.Pins.Relay,
		PortPowerA: c.Pins.PortPowerA,
		PortPowerB: c.Pins.PortPowerB,
		MuxSelect:  c.Pins.MuxSelect,
		MuxEnable:  c.Pins.MuxEnable,
		LEDPortA:   c.Pins.LEDPortA,
		LEDPortB:   c.Pins.LEDPortB,
	}
}
