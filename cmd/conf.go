package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/scitags/nldgram/internal/api"
	"github.com/scitags/nldgram/internal/epoll"
	"github.com/scitags/nldgram/metrics"
	"github.com/scitags/nldgram/netlink"
)

type Config struct {
	// RecvBuffer is the size of the buffer datagrams are read into. Larger
	// datagrams are truncated by the kernel.
	RecvBuffer int `yaml:"recvBuffer"`

	Channels []*netlink.Config `yaml:"channels"`

	Poller  *epoll.Config   `yaml:"poller"`
	Metrics *metrics.Config `yaml:"metrics"`
	Api     *api.Config     `yaml:"api"`
}

func (c Config) String() string {
	m, err := yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return "marshalling error..."
	}
	return string(m)
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := &config{
		RecvBuffer: 1 << 16,
		Channels:   []*netlink.Config{},
	}

	if err := yaml.Unmarshal(b, def); err != nil {
		return err
	}

	*c = Config(*def)
	c.fill()

	return nil
}

// fill swaps missing sections for their defaults.
func (c *Config) fill() {
	if c.Poller == nil {
		p := epoll.DefaultConfig
		c.Poller = &p
	}
	if c.Metrics == nil {
		m := metrics.DefaultConfig
		c.Metrics = &m
	}
	if c.Api == nil {
		a := api.DefaultConfig
		c.Api = &a
	}
}

func DefaultConfig() *Config {
	c := &Config{}
	if err := yaml.Unmarshal([]byte("{}"), c); err != nil {
		// The empty document always parses.
		panic(err)
	}
	return c
}

func ReadConf(path string) (*Config, error) {
	r, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading the configuration file: %w", err)
	}

	conf := Config{}
	if err := yaml.Unmarshal(r, &conf); err != nil {
		return nil, fmt.Errorf("error unmarshaling the configuration: %w", err)
	}

	if conf.RecvBuffer <= 0 {
		return nil, fmt.Errorf("recvBuffer must be positive, got %d", conf.RecvBuffer)
	}

	if conf.Poller.MaxEvents <= 0 {
		return nil, fmt.Errorf("poller.maxEvents must be positive, got %d", conf.Poller.MaxEvents)
	}

	return &conf, nil
}
