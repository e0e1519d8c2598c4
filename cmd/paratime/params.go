package main

import (
	"flag"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey   = "version"
	dbBackendKey = "db.backend"
	dbDirKey     = "db.dir"
	listenKey    = "http.addr"
	logLevelKey  = "log.level"
	runtimeIDKey = "runtime.id"
	seedKey      = "keymanager.seed"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("paratime", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quits")
	fs.String(dbBackendKey, "memdb", "Database backend (memdb or goleveldb)")
	fs.String(dbDirKey, "data", "Database directory (goleveldb backend)")
	fs.String(listenKey, ":8548", "HTTP listen address for the JSON-RPC service")
	fs.String(logLevelKey, "info", "Log level (debug, info, warn, error)")
	fs.String(runtimeIDKey, "8000000000000000000000000000000000000000000000000000000000000000", "Static runtime identifier")
	fs.String(seedKey, "", "Hex-encoded key manager root seed (dev only; random when empty)")

	return fs
}

// getViper returns the viper environment for the daemon binary.
func getViper() (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	return v, nil
}
