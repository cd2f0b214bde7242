package neo4j

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Access modes accepted by Options.AccessMode.
const (
	AccessRead  = "read"
	AccessWrite = "write"
)

// Options configures the driver and the sessions a Connection opens.
type Options struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Realm    string `yaml:"realm"`
	// Database selects the target database; empty uses the server default.
	Database string `yaml:"database"`
	// AccessMode routes sessions in a cluster: "read" or "write".
	AccessMode string `yaml:"access_mode"`

	MaxConnectionPoolSize        int           `yaml:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `yaml:"connection_acquisition_timeout"`
	SocketConnectTimeout         time.Duration `yaml:"socket_connect_timeout"`
	MaxConnectionLifetime        time.Duration `yaml:"max_connection_lifetime"`
}

// DefaultOptions returns options for a local, single instance server.
func DefaultOptions() *Options {
	return &Options{
		URI:                          "neo4j://localhost:7687",
		Username:                     "neo4j",
		AccessMode:                   AccessWrite,
		MaxConnectionPoolSize:        100,
		ConnectionAcquisitionTimeout: time.Minute,
		SocketConnectTimeout:         5 * time.Second,
		MaxConnectionLifetime:        time.Hour,
	}
}

// LoadOptions reads YAML options from path. Fields missing from the file keep
// their DefaultOptions values. Durations are written as "30s", "5m", ...
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// ApplyEnv overrides options with NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD
// and NEO4J_DATABASE when they are set.
func (o *Options) ApplyEnv() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		o.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		o.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		o.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		o.Database = v
	}
}

// Validate checks the options a driver cannot be created without.
func (o *Options) Validate() error {
	if o.URI == "" {
		return fmt.Errorf("%w: uri is required", ErrInvalidOptions)
	}
	switch o.AccessMode {
	case "", AccessRead, AccessWrite:
	default:
		return fmt.Errorf("%w: unknown access mode %q", ErrInvalidOptions, o.AccessMode)
	}
	if o.MaxConnectionPoolSize < 0 {
		return fmt.Errorf("%w: negative connection pool size", ErrInvalidOptions)
	}
	return nil
}
