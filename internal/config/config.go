// Package config loads fpgrars.toml and merges it with CLI flags, CLI
// always winning. Eight flat scalar keys don't need a remote-provider/
// live-reload config library, so this sticks to BurntSushi/toml over a
// plain struct.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full set of recognized keys: file, width, height,
// scale, port, no_video, print_instructions, print_state.
type Config struct {
	File              string `toml:"file"`
	Width             int    `toml:"width"`
	Height            int    `toml:"height"`
	Scale             int    `toml:"scale"`
	Port              int    `toml:"port"`
	NoVideo           bool   `toml:"no_video"`
	PrintInstructions bool   `toml:"print_instructions"`
	PrintState        bool   `toml:"print_state"`
}

// Defaults matches the CLI's own option defaults exactly, so a program
// run with neither a config file nor flags still behaves as documented.
func Defaults() Config {
	return Config{
		Width:  320,
		Height: 240,
		Scale:  2,
		Port:   -1,
	}
}

// DefaultPath is the config file name looked for in the current
// working directory.
const DefaultPath = "fpgrars.toml"

// Load reads path (if it exists) over Defaults(). A missing file is not
// an error, since a program with no config file just runs on defaults;
// a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Overrides is the subset of Config that CLI flags actually set; nil
// fields (the pointer form) mean "flag not passed, keep the file/
// default value" so Merge can distinguish an explicit `--scale 2` from
// a flag the user never touched.
type Overrides struct {
	File              *string
	Width             *int
	Height            *int
	Scale             *int
	Port              *int
	NoVideo           *bool
	PrintInstructions *bool
	PrintState        *bool
}

// Merge applies o on top of cfg, CLI flags taking precedence over the
// file.
func Merge(cfg Config, o Overrides) Config {
	if o.File != nil {
		cfg.File = *o.File
	}
	if o.Width != nil {
		cfg.Width = *o.Width
	}
	if o.Height != nil {
		cfg.Height = *o.Height
	}
	if o.Scale != nil {
		cfg.Scale = *o.Scale
	}
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.NoVideo != nil {
		cfg.NoVideo = *o.NoVideo
	}
	if o.PrintInstructions != nil {
		cfg.PrintInstructions = *o.PrintInstructions
	}
	if o.PrintState != nil {
		cfg.PrintState = *o.PrintState
	}
	return cfg
}
