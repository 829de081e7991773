package monitor

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	StopTimeout  time.Duration `envconfig:"STOP_TIMEOUT" default:"10s"`
	TickTimeout  time.Duration `envconfig:"TICK_TIMEOUT" default:"30s"`
	RecentErrors int           `envconfig:"STATUS_RECENT_ERRORS" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
