package internal

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	HTTPBaseURL    string        `env:"HTTP_BASE_URL,required=true" validate:"required,url"`
	WSBaseURL      string        `env:"WS_BASE_URL,required=true" validate:"required,url"`
	AuthToken      string        `env:"AUTH_TOKEN,required=true" validate:"required"`
	SelfID         string        `env:"SELF_ID"`
	PeerID         string        `env:"PEER_ID"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=10s" validate:"gte=0"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT,default=0s" validate:"gte=0"`
}

func (c Config) Validate() error {
	return validate.Struct(c)
}
