package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Conf is the daemon configuration: which host CAN devices to bridge and
// how to log.
type Conf struct {
	Log        Log         `yaml:"log"`
	Interfaces []Interface `yaml:"interfaces"`
}

// Log configures the daemon logger.
type Log struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Interface describes one bridged interface.
type Interface struct {
	// Name is the bridge-side interface name frames are reported under.
	Name string `yaml:"name"`
	// Device is the host CAN device to open (e.g. "zcan0").
	Device string `yaml:"device"`
	// Backoff is the poll delay while the interface is down.
	Backoff time.Duration `yaml:"backoff"`
	// Buffer bounds the receive queue and packet pool.
	Buffer int `yaml:"buffer"`
}

// LoadFromFile reads, defaults and validates a YAML configuration.
func LoadFromFile(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses, defaults and validates a YAML configuration.
func Load(data []byte) (*Conf, error) {
	var conf Conf
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	conf.setDefaults()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Conf) setDefaults() {
	c.Log.setDefaults()
	for i := range c.Interfaces {
		c.Interfaces[i].setDefaults()
	}
}

func (l *Log) setDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func (i *Interface) setDefaults() {
	if i.Name == "" {
		i.Name = i.Device
	}
	if i.Backoff == 0 {
		i.Backoff = 10 * time.Millisecond
	}
	if i.Buffer == 0 {
		i.Buffer = 64
	}
}

func (c *Conf) validate() error {
	var allErrors []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		allErrors = append(allErrors, fmt.Errorf("log level must be one of debug, info, warn, error"))
	}

	if len(c.Interfaces) == 0 {
		allErrors = append(allErrors, fmt.Errorf("no interfaces configured"))
	}

	seen := make(map[string]int)
	for i := range c.Interfaces {
		ifc := &c.Interfaces[i]
		if ifc.Device == "" {
			allErrors = append(allErrors, fmt.Errorf("interfaces[%d]: device is required", i))
		}
		if ifc.Backoff < 0 {
			allErrors = append(allErrors, fmt.Errorf("interfaces[%d]: backoff must be >= 0", i))
		}
		if ifc.Buffer < 0 {
			allErrors = append(allErrors, fmt.Errorf("interfaces[%d]: buffer must be >= 0", i))
		}
		if prev, ok := seen[ifc.Name]; ok {
			allErrors = append(allErrors, fmt.Errorf("interfaces[%d]: name %q already used by interfaces[%d]", i, ifc.Name, prev))
		} else {
			seen[ifc.Name] = i
		}
	}

	return writeErr(allErrors)
}

func writeErr(allErrors []error) error {
	if len(allErrors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(allErrors))
	for _, err := range allErrors {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}
