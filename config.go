package main

import (
	"flag"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the front end listens on (e.g. "0.0.0.0:80")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 921600)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// APN is the packet-domain access point name
	APN string
	// DefaultHost is the origin fetched when a request names no URL
	DefaultHost string
	// DefaultPath is the path fetched when a request names no URL
	DefaultPath string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:80"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 921600
		c.LogLevel = "info"
		c.APN = "CTNET"
		c.DefaultHost = "www.gzxxzlk.com"
		c.DefaultPath = "/"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}

		if host := os.Getenv("DEFAULT_HOST"); host != "" {
			c.DefaultHost = host
		}

		if path := os.Getenv("DEFAULT_PATH"); path != "" {
			c.DefaultPath = path
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "apn":
				c.APN = f.Value.String()
			case "default-host":
				c.DefaultHost = f.Value.String()
			case "default-path":
				c.DefaultPath = f.Value.String()
			}

		})
		return nil
	}

}
