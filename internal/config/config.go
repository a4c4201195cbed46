// Package config holds the environment-driven configuration of the daemon.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the daemon configuration parsed from environment variables.
type Config struct {
	// DevctlPath is the kernel device event channel.
	DevctlPath string `env:"DEVMAPPERD_DEVCTL_PATH" envDefault:"/dev/devctl"`
	// DevRoot is the directory device nodes are created under.
	DevRoot string `env:"DEVMAPPERD_DEV_ROOT" envDefault:"/dev"`
	// NodeIndexRoot is the directory of the (type, major, minor) symlink
	// index used to locate nodes on removal.
	NodeIndexRoot string `env:"DEVMAPPERD_NODE_INDEX_ROOT" envDefault:"/tmp/system/devicemap/nodes"`
	// TracingEnabled turns on OTLP span export for handled events.
	TracingEnabled bool `env:"DEVMAPPERD_TRACING" envDefault:"false"`
	// SpanAttributes configures extra span attributes as
	// "name=expression,name=expression" pairs evaluated per event.
	SpanAttributes string `env:"DEVMAPPERD_SPAN_ATTRIBUTES" envDefault:""`
}

// CustomAttribute is one configured span attribute: a name and the
// expression producing its value.
type CustomAttribute struct {
	Name       string
	Expression string
}

// Parse reads the daemon configuration from the environment.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config from environment: %w", err)
	}
	return &cfg, nil
}

// CustomAttributes parses the SpanAttributes setting into attribute
// definitions. Pairs without an "=" are rejected.
func (c *Config) CustomAttributes() ([]CustomAttribute, error) {
	if c.SpanAttributes == "" {
		return nil, nil
	}
	var attrs []CustomAttribute
	for _, pair := range strings.Split(c.SpanAttributes, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("malformed span attribute %q, want name=expression", pair)
		}
		attrs = append(attrs, CustomAttribute{
			Name:       strings.TrimSpace(kv[0]),
			Expression: strings.TrimSpace(kv[1]),
		})
	}
	return attrs, nil
}
