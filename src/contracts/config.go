package contracts

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RefreshTimeout time.Duration `envconfig:"CONTRACT_REFRESH_TIMEOUT" default:"60s"`
	// cron spec for background refreshes; empty disables them
	RefreshSchedule string `envconfig:"CONTRACT_REFRESH_SCHEDULE" default:"@every 6h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
