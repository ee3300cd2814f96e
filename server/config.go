package server

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/interp"
)

const (
	// DefaultHost is the default bind address.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default HTTP port.
	DefaultPort = 8000

	// DefaultMaxDataPoints caps the number of values one /data request
	// may extract across all requested variables.
	DefaultMaxDataPoints = 10_000_000
)

var (
	// the parsed TOML configuration data
	tc tomlConfig

	// the TOML config file location
	tcLocation string

	// the TOML config raw contents
	tcContent string
)

type tomlConfig struct {
	Server  serverConfig
	Data    dataConfig
	Aliases map[string]string
	Logging gridserve.LogConfig
}

type serverConfig struct {
	Host          string
	Port          int
	Note          string
	CorsOrigins   []string `toml:"cors_origins"`
	ShutdownDelay int      `toml:"shutdown_delay"`
}

type dataConfig struct {
	FilePath            string `toml:"file_path"`
	InterpolationMethod string `toml:"interpolation_method"`
	MaxDataPoints       int64  `toml:"max_data_points"`
}

func init() {
	tc.Server.Host = DefaultHost
	tc.Server.Port = DefaultPort
	tc.Data.MaxDataPoints = DefaultMaxDataPoints
	tc.Data.InterpolationMethod = string(interp.Bilinear)
}

// LoadConfig loads server configuration from a TOML file. An empty
// filename keeps the built-in defaults.
func LoadConfig(filename string) error {
	if filename == "" {
		return nil
	}
	if _, err := toml.DecodeFile(filename, &tc); err != nil {
		return fmt.Errorf("could not decode TOML config %q: %v", filename, err)
	}
	tcLocation = filename

	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	byteContents, err := io.ReadAll(fp)
	if err != nil {
		return err
	}
	tcContent = string(byteContents)

	if tc.Server.Host == "" {
		tc.Server.Host = DefaultHost
	}
	if tc.Server.Port == 0 {
		tc.Server.Port = DefaultPort
	}
	if tc.Data.MaxDataPoints == 0 {
		tc.Data.MaxDataPoints = DefaultMaxDataPoints
	}
	if _, err := interp.ParseMethod(tc.Data.InterpolationMethod); err != nil {
		return err
	}
	return nil
}

// SetHost overrides the configured bind address, typically from a
// command-line flag.
func SetHost(host string) {
	tc.Server.Host = host
}

// SetPort overrides the configured port.
func SetPort(port int) {
	tc.Server.Port = port
}

// InitLogging sets up the rotating log file if one is configured.
func InitLogging() {
	tc.Logging.SetLogger()
}

// HTTPAddress returns the host:port the web server binds.
func HTTPAddress() string {
	return fmt.Sprintf("%s:%d", tc.Server.Host, tc.Server.Port)
}

func ConfigLocation() string {
	return tcLocation
}

func Note() string {
	return tc.Server.Note
}

// MaxDataPoints returns the extraction cap for /data requests.
func MaxDataPoints() int64 {
	return tc.Data.MaxDataPoints
}

// DefaultInterpolation returns the configured interpolation method.
func DefaultInterpolation() interp.Method {
	m, err := interp.ParseMethod(tc.Data.InterpolationMethod)
	if err != nil {
		return interp.Bilinear
	}
	return m
}

// DimensionAliases returns the configured canonical-to-file dimension
// name mapping.
func DimensionAliases() map[string]string {
	return tc.Aliases
}

func corsOrigins() []string {
	return tc.Server.CorsOrigins
}
