package autoportfolio

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Investment       float64       `envconfig:"AUTO_INVESTMENT" default:"10"`
	PositionsPerType int           `envconfig:"AUTO_POSITIONS_PER_TYPE" default:"25"`
	Window           time.Duration `envconfig:"AUTO_WINDOW" default:"4h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
