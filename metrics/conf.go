package metrics

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	Enabled bool `yaml:"enabled"`
	Log     bool `yaml:"log"`
}

var DefaultConfig = Config{
	Enabled: true,
	Log:     false,
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
