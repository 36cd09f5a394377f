package netlink

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// Protocol is a protocol name such as "route" or its numeric value.
	Protocol string `yaml:"protocol"`

	Groups      uint32   `yaml:"groups"`
	Memberships []uint32 `yaml:"memberships"`

	// AutoPort lets the kernel choose the port id instead of using the pid.
	AutoPort bool `yaml:"autoPort"`

	ReadBuffer  int  `yaml:"readBuffer"`
	WriteBuffer int  `yaml:"writeBuffer"`
	ExtendedAck bool `yaml:"extendedAck"`

	Peer *Addr `yaml:"peer"`
}

var DefaultConfig = Config{
	Protocol:    "route",
	AutoPort:    true,
	ExtendedAck: true,
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
