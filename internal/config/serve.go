package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	RPCURL      string
	Listen      string
	SnapshotTTL time.Duration
	LogLevel    string
}

// LoadServe merges config file, environment variables, and flags into
// ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":       ":8080",
		"snapshot-ttl": 2 * time.Second,
		"log-level":    "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		RPCURL:      v.GetString("rpc"),
		Listen:      v.GetString("listen"),
		SnapshotTTL: v.GetDuration("snapshot-ttl"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
