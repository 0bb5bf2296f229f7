// Package config loads the handful of runtime knobs a proclet host
// needs: the default channel mailbox cap, the population registry's
// cache size, and how loudly net-construction warnings should be
// logged. The module itself is a library with no service lifecycle of
// its own, so this stays a thin YAML-backed options struct rather than
// a full config-service layer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WarningLevel controls how proclets/proclet's Warnings() output is
// surfaced by a host that chooses to use it.
type WarningLevel string

const (
	WarnSilent WarningLevel = "silent"
	WarnLog    WarningLevel = "log"
	WarnFatal  WarningLevel = "fatal"
)

// Options are the defaults a host applies when constructing channels,
// proclets, and the population registry.
type Options struct {
	// ChannelMaxlen is the maxlen new channels get: it bounds how much
	// history every party has already read each mailbox keeps; unread
	// entries are never dropped. Zero means unbounded.
	ChannelMaxlen int `yaml:"channel_maxlen"`
	// PopulationSize bounds the process-wide population registry. Zero
	// means unbounded.
	PopulationSize int `yaml:"population_size"`
	// NetWarnings controls how malformed-net advisories are surfaced.
	NetWarnings WarningLevel `yaml:"net_warnings"`
}

// Default returns the options a host gets with no configuration file at
// all: unbounded channels, an unbounded population, and warnings logged
// rather than silenced or fatal.
func Default() Options {
	return Options{
		ChannelMaxlen:  0,
		PopulationSize: 0,
		NetWarnings:    WarnLog,
	}
}

// Load reads YAML options from path, starting from Default() so a
// partial file only overrides the fields it sets.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate rejects option combinations that could never construct a
// usable host.
func (o Options) Validate() error {
	switch o.NetWarnings {
	case WarnSilent, WarnLog, WarnFatal, "":
	default:
		return fmt.Errorf("config: unknown net_warnings level %q", o.NetWarnings)
	}
	if o.ChannelMaxlen < 0 {
		return fmt.Errorf("config: channel_maxlen must be >= 0, got %d", o.ChannelMaxlen)
	}
	if o.PopulationSize < 0 {
		return fmt.Errorf("config: population_size must be >= 0, got %d", o.PopulationSize)
	}
	return nil
}
