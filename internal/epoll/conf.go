package epoll

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// MaxEvents bounds the readiness events collected per Wait.
	MaxEvents int `yaml:"maxEvents"`
}

var DefaultConfig = Config{
	MaxEvents: 64,
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := config(DefaultConfig)

	if err := yaml.Unmarshal(b, &def); err != nil {
		return err
	}

	*c = Config(def)

	return nil
}
