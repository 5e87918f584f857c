// Package e2e runs the engine against a live backend. Every test is skipped
// unless E2E_HTTP_BASE_URL is set.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPBaseURL string `envconfig:"E2E_HTTP_BASE_URL"`
	WSBaseURL   string `envconfig:"E2E_WS_BASE_URL"`
	Token       string `envconfig:"E2E_TOKEN"`
	SelfID      string `envconfig:"E2E_SELF_ID"`
	PeerID      string `envconfig:"E2E_PEER_ID"`
	// E2E_COLOURS enables colorized step headers
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
