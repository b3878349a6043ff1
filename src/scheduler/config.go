package scheduler

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Six field cron spec (seconds first) or a descriptor such as "@every 30m".
	Cron    string `envconfig:"SCHEDULE_CRON" default:"0 */30 * * * *"`
	UserID  uint   `envconfig:"SCHEDULE_USER_ID" default:"0"`
	Offsets []int  `envconfig:"SCHEDULE_OFFSETS" default:"0,30,60"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
