package config

import "github.com/spf13/pflag"

// SalesConfig holds configuration for the sales command.
type SalesConfig struct {
	RPCURL   string
	In       string
	PGDSN    string
	LogLevel string
}

// LoadSales merges config file, environment variables, and flags into
// SalesConfig.
func LoadSales(cfgFile string, flags *pflag.FlagSet) (SalesConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return SalesConfig{}, err
	}

	cfg := SalesConfig{
		RPCURL:   v.GetString("rpc"),
		In:       v.GetString("in"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
