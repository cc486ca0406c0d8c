// Package config holds the settings of a simulation run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that provide defaults for the command-line flags.
const (
	EnvSetBits     = "CSIM_SET_BITS"
	EnvWays        = "CSIM_WAYS"
	EnvBlockBits   = "CSIM_BLOCK_BITS"
	EnvTrace       = "CSIM_TRACE"
	EnvVerbose     = "CSIM_VERBOSE"
	EnvRecord      = "CSIM_RECORD"
	EnvMonitorPort = "CSIM_MONITOR_PORT"
	EnvLogLevel    = "CSIM_LOG_LEVEL"
)

// DefaultEnvFile is loaded when LoadEnv is called without files.
const DefaultEnvFile = ".env"

var (
	// ErrMissingTraceFile is returned when no trace is given.
	ErrMissingTraceFile = errors.New("missing trace file")

	// ErrInvalidGeometry is returned for a negative s or b, or E <= 0.
	ErrInvalidGeometry = errors.New("invalid cache geometry")

	// ErrInvalidEnv is returned when an environment variable does not parse.
	ErrInvalidEnv = errors.New("invalid environment variable")
)

// Config describes one simulation run.
type Config struct {
	// SetBits is s; the cache has 2^s sets.
	SetBits int

	// Ways is E, the number of lines per set.
	Ways int

	// BlockBits is b; blocks are 2^b bytes.
	BlockBits int

	TraceFile string
	Verbose   bool

	// RecordPath, when set, records every access into a SQLite database.
	RecordPath string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	LogLevel string
}

// Default returns a configuration with every optional setting at its default.
// The geometry is left unset so that validation catches missing flags.
func Default() Config {
	return Config{
		SetBits:   -1,
		Ways:      0,
		BlockBits: -1,
		LogLevel:  "warning",
	}
}

// Validate checks the values that the cache model treats as already valid.
func (c Config) Validate() error {
	if c.SetBits < 0 {
		return fmt.Errorf("%w: s=%d must not be negative",
			ErrInvalidGeometry, c.SetBits)
	}

	if c.Ways <= 0 {
		return fmt.Errorf("%w: E=%d must be positive",
			ErrInvalidGeometry, c.Ways)
	}

	if c.BlockBits < 0 {
		return fmt.Errorf("%w: b=%d must not be negative",
			ErrInvalidGeometry, c.BlockBits)
	}

	if c.TraceFile == "" {
		return ErrMissingTraceFile
	}

	return nil
}

// LoadEnv loads environment files into the process environment. Variables
// that are already set win. Without arguments, DefaultEnvFile is loaded if it
// exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}

	return godotenv.Load(files...)
}

// FromEnv overlays the CSIM_* environment variables on base.
func FromEnv(base Config) (Config, error) {
	c := base

	ints := []struct {
		key string
		dst *int
	}{
		{EnvSetBits, &c.SetBits},
		{EnvWays, &c.Ways},
		{EnvBlockBits, &c.BlockBits},
		{EnvMonitorPort, &c.MonitorPort},
	}

	for _, v := range ints {
		raw, ok := os.LookupEnv(v.key)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return base, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, v.key, raw)
		}

		*v.dst = n
	}

	if raw, ok := os.LookupEnv(EnvVerbose); ok {
		verbose, err := strconv.ParseBool(raw)
		if err != nil {
			return base, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvVerbose, raw)
		}

		c.Verbose = verbose
	}

	if raw, ok := os.LookupEnv(EnvTrace); ok {
		c.TraceFile = raw
	}

	if raw, ok := os.LookupEnv(EnvRecord); ok {
		c.RecordPath = raw
	}

	if raw, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = raw
	}

	if c.MonitorPort != 0 {
		c.Monitor = true
	}

	return c, nil
}
