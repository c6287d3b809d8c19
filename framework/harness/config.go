package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPortMin          = 7000
	DefaultPortMax          = 12000
	DefaultLivenessPath     = "/is_alive"
	DefaultProbeInterval    = 100 * time.Millisecond
	DefaultProbeMaxAttempts = 100
	DefaultProbeMaxElapsed  = 10 * time.Second
	DefaultProbeTimeout     = 500 * time.Millisecond
	DefaultTerminateTimeout = 3 * time.Second
	DefaultLaunchAttempts   = 3
)

// PortRange is an inclusive range of TCP ports to choose from.
type PortRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Validate returns an error if the range is empty or outside of the valid port numbers.
func (r PortRange) Validate() error {
	if r.Min < 1 || r.Max > 65535 || r.Min > r.Max {
		return fmt.Errorf("invalid port range %s", r)
	}
	return nil
}

// ProbeConfig controls how Probe decides that a server is ready.
type ProbeConfig struct {
	// LivenessPath is requested with GET until it returns a 2xx status. If it is empty and
	// FixedDelay is set, Probe just waits for FixedDelay instead.
	LivenessPath   string        `yaml:"livenessPath"`
	Interval       time.Duration `yaml:"interval"`
	MaxAttempts    uint          `yaml:"maxAttempts"`
	MaxElapsed     time.Duration `yaml:"maxElapsed"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	FixedDelay     time.Duration `yaml:"fixedDelay"`
}

func (c ProbeConfig) withDefaults() ProbeConfig {
	if c.LivenessPath == "" && c.FixedDelay == 0 {
		c.LivenessPath = DefaultLivenessPath
	}
	if c.Interval <= 0 {
		c.Interval = DefaultProbeInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultProbeMaxAttempts
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = DefaultProbeMaxElapsed
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultProbeTimeout
	}
	return c
}

// Config holds every tunable of the harness. The zero value of any field means "use the
// default".
type Config struct {
	Ports            PortRange     `yaml:"ports"`
	Probe            ProbeConfig   `yaml:"probe"`
	TerminateTimeout time.Duration `yaml:"terminateTimeout"`
	LaunchAttempts   int           `yaml:"launchAttempts"`
	Browser          bool          `yaml:"browser"`
}

func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of the configuration with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.Ports.Min == 0 && c.Ports.Max == 0 {
		c.Ports = PortRange{Min: DefaultPortMin, Max: DefaultPortMax}
	}
	c.Probe = c.Probe.withDefaults()
	if c.TerminateTimeout <= 0 {
		c.TerminateTimeout = DefaultTerminateTimeout
	}
	if c.LaunchAttempts <= 0 {
		c.LaunchAttempts = DefaultLaunchAttempts
	}
	return c
}

// LoadConfig reads a YAML configuration file. Fields that the file doesn't mention get
// their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("malformed configuration file %s: %w", path, err)
	}
	c = c.WithDefaults()
	if err := c.Ports.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration file %s: %w", path, err)
	}
	return c, nil
}
