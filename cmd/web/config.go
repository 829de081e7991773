package web

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// start the monitor right after boot when active configs exist
	AutoStart bool `envconfig:"MONITOR_AUTOSTART" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
