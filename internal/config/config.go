// Package config loads the gearshift-keyboard YAML configuration and
// applies command-line overrides on top of it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/gearshift-keyboard/internal/gpio"
	"github.com/sweeney/gearshift-keyboard/internal/keyboard"
	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// Config is the top-level YAML configuration. Defaults come from
// DefaultConfig; a file only needs the keys it changes.
type Config struct {
	Shifter     ShifterConfig    `yaml:"shifter"`
	Thresholds  ThresholdsConfig `yaml:"thresholds"`
	Keyboard    KeyboardConfig   `yaml:"keyboard"`
	PollMS      int              `yaml:"poll_ms"`
	MQTT        MQTTConfig       `yaml:"mqtt"`
	HeartbeatMS int              `yaml:"heartbeat_ms"`
	HTTP        HTTPConfig       `yaml:"http"`
	Logging     LoggingConfig    `yaml:"logging"`
}

type ShifterConfig struct {
	AxisX                 int    `yaml:"axis_x"` // IIO voltage channel
	AxisY                 int    `yaml:"axis_y"`
	Button                int    `yaml:"button"` // GPIO line offset
	GPIOChip              string `yaml:"gpio_chip"`
	IIODevice             string `yaml:"iio_device"`
	ADCBits               int    `yaml:"adc_bits"`
	ReverseButtonDebounce bool   `yaml:"reverse_button_debounce"`
}

type ThresholdsConfig struct {
	LeftX      int `yaml:"left_x"`
	RightX     int `yaml:"right_x"`
	TopY       int `yaml:"top_y"`
	BottomY    int `yaml:"bottom_y"`
	Disconnect int `yaml:"disconnect"`
}

type KeyboardConfig struct {
	Device        string `yaml:"device"`
	HoldMS        int    `yaml:"hold_ms"`
	QueueCapacity int    `yaml:"queue_capacity"`
	// KeyMap maps gear names (N, 1..6, R) to a single key. Entries merge
	// over the defaults; an empty value leaves that gear unmapped.
	KeyMap map[string]string `yaml:"keymap"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty disables MQTT
	ClientID string `yaml:"client_id"`
	Buffer   int    `yaml:"buffer"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the status server
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	th := logic.DefaultThresholds()
	sc := logic.DefaultSchedulerConfig()

	keymap := make(map[string]string)
	for g, k := range logic.DefaultKeyMap() {
		keymap[g.String()] = k.String()
	}

	return Config{
		Shifter: ShifterConfig{
			AxisX:                 gpio.DefaultAxisX,
			AxisY:                 gpio.DefaultAxisY,
			Button:                gpio.DefaultButton,
			GPIOChip:              gpio.DefaultChip,
			IIODevice:             gpio.DefaultIIODevice,
			ADCBits:               10,
			ReverseButtonDebounce: th.ReverseDebounce,
		},
		Thresholds: ThresholdsConfig{
			LeftX:      int(th.LeftX),
			RightX:     int(th.RightX),
			TopY:       int(th.TopY),
			BottomY:    int(th.BottomY),
			Disconnect: int(th.Disconnect),
		},
		Keyboard: KeyboardConfig{
			Device:        keyboard.DefaultDevice,
			HoldMS:        int(sc.Hold / time.Millisecond),
			QueueCapacity: sc.Capacity,
			KeyMap:        keymap,
		},
		PollMS: 10,
		MQTT: MQTTConfig{
			ClientID: "gearshift-keyboard",
			Buffer:   100,
		},
		HeartbeatMS: int((15 * time.Minute) / time.Millisecond),
		HTTP:        HTTPConfig{Addr: ":8080"},
		Logging:     LoggingConfig{Level: "info"},
	}
}

// LoadConfigFile reads a YAML file over DefaultConfig. Unknown keys are
// rejected so typos surface at startup.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parse(b)
}

func parse(b []byte) (Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Keyboard.KeyMap
	cfg.Keyboard.KeyMap = nil

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	keymap, err := mergeKeyMap(defaults, cfg.Keyboard.KeyMap)
	if err != nil {
		return Config{}, err
	}
	cfg.Keyboard.KeyMap = keymap
	return cfg, nil
}

// mergeKeyMap lays the file's keymap over the defaults. Gear names are
// stored in canonical form so "r" replaces the default "R" entry. Names that
// do not parse are kept as written for Validate to report.
func mergeKeyMap(defaults, file map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(defaults)+len(file))
	for name, key := range defaults {
		out[name] = key
	}

	given := make(map[logic.Gear]string, len(file))
	for name, key := range file {
		g, err := logic.ParseGear(name)
		if err != nil {
			out[name] = key
			continue
		}
		if prev, ok := given[g]; ok {
			return nil, fmt.Errorf("keyboard.keymap: gear %s given as both %q and %q", g, prev, name)
		}
		given[g] = name
		out[g.String()] = key
	}
	return out, nil
}

// FlagOverrides holds values from command-line flags. A nil field was not
// given on the command line and leaves the config untouched.
type FlagOverrides struct {
	Poll      *time.Duration
	Hold      *time.Duration
	Broker    *string
	HTTPAddr  *string
	Heartbeat *time.Duration
	LogLevel  *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Poll != nil {
		cfg.PollMS = int(*o.Poll / time.Millisecond)
	}
	if o.Hold != nil {
		cfg.Keyboard.HoldMS = int(*o.Hold / time.Millisecond)
	}
	if o.Broker != nil {
		cfg.MQTT.Broker = *o.Broker
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.Addr = *o.HTTPAddr
	}
	if o.Heartbeat != nil {
		cfg.HeartbeatMS = int(*o.Heartbeat / time.Millisecond)
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	s := c.Shifter
	if s.AxisX < 0 || s.AxisY < 0 || s.Button < 0 {
		return errors.New("shifter: channel numbers must be >= 0")
	}
	if s.AxisX == s.AxisY {
		return errors.New("shifter.axis_x and shifter.axis_y must differ")
	}
	if s.GPIOChip == "" {
		return errors.New("shifter.gpio_chip must not be empty")
	}
	if s.IIODevice == "" {
		return errors.New("shifter.iio_device must not be empty")
	}
	if s.ADCBits < 1 || s.ADCBits > 16 {
		return errors.New("shifter.adc_bits must be between 1 and 16")
	}

	t := c.Thresholds
	for name, v := range map[string]int{
		"left_x": t.LeftX, "right_x": t.RightX, "top_y": t.TopY,
		"bottom_y": t.BottomY, "disconnect": t.Disconnect,
	} {
		if v < 0 || v > 1023 {
			return fmt.Errorf("thresholds.%s must be between 0 and 1023", name)
		}
	}
	if t.LeftX >= t.RightX {
		return errors.New("thresholds.left_x must be < thresholds.right_x")
	}
	if t.BottomY >= t.TopY {
		return errors.New("thresholds.bottom_y must be < thresholds.top_y")
	}

	k := c.Keyboard
	if k.Device == "" {
		return errors.New("keyboard.device must not be empty")
	}
	if k.HoldMS <= 0 {
		return errors.New("keyboard.hold_ms must be > 0")
	}
	if k.QueueCapacity < 1 {
		return errors.New("keyboard.queue_capacity must be >= 1")
	}
	km, err := c.KeyMap()
	if err != nil {
		return err
	}
	for g, sym := range km {
		if _, err := keyboard.Lookup(sym); err != nil {
			return fmt.Errorf("keyboard.keymap[%s]: %w", g, err)
		}
	}

	if c.PollMS <= 0 {
		return errors.New("poll_ms must be > 0")
	}
	if c.HeartbeatMS < 0 {
		return errors.New("heartbeat_ms must be >= 0")
	}
	if c.MQTT.Broker != "" {
		if c.MQTT.ClientID == "" {
			return errors.New("mqtt.client_id must not be empty when mqtt.broker is set")
		}
		if c.MQTT.Buffer < 0 {
			return errors.New("mqtt.buffer must be >= 0")
		}
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ToThresholds converts the file geometry into decoder thresholds.
func (c *Config) ToThresholds() logic.Thresholds {
	return logic.Thresholds{
		LeftX:           uint16(c.Thresholds.LeftX),
		RightX:          uint16(c.Thresholds.RightX),
		TopY:            uint16(c.Thresholds.TopY),
		BottomY:         uint16(c.Thresholds.BottomY),
		Disconnect:      uint16(c.Thresholds.Disconnect),
		ReverseDebounce: c.Shifter.ReverseButtonDebounce,
	}
}

// ToSchedulerConfig converts keyboard timing into scheduler config.
func (c *Config) ToSchedulerConfig() logic.SchedulerConfig {
	return logic.SchedulerConfig{
		Hold:     c.Hold(),
		Capacity: c.Keyboard.QueueCapacity,
	}
}

// KeyMap parses the configured gear to key mapping.
func (c *Config) KeyMap() (logic.KeyMap, error) {
	km, err := logic.ParseKeyMap(c.Keyboard.KeyMap)
	if err != nil {
		return nil, fmt.Errorf("keyboard.keymap: %w", err)
	}
	return km, nil
}

// Channels returns the decoder's X, Y and button channels.
func (c *Config) Channels() (x, y, button logic.Channel) {
	return logic.AnalogChannel(c.Shifter.AxisX),
		logic.AnalogChannel(c.Shifter.AxisY),
		logic.DigitalChannel(c.Shifter.Button)
}

func (c *Config) Poll() time.Duration      { return time.Duration(c.PollMS) * time.Millisecond }
func (c *Config) Hold() time.Duration      { return time.Duration(c.Keyboard.HoldMS) * time.Millisecond }
func (c *Config) Heartbeat() time.Duration { return time.Duration(c.HeartbeatMS) * time.Millisecond }
