package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	FormatYAML = "yaml"
	FormatText = "text"
)

// Config holds the driver settings. A TOML file may set any of them:
//
//	transitivity = false
//	debug = true
//	format = "text"
type Config struct {
	Transitivity bool   `toml:"transitivity"`
	Debug        bool   `toml:"debug"`
	Format       string `toml:"format"`
}

func Default() Config {
	return Config{Transitivity: true, Format: FormatYAML}
}

// Load returns Default overlaid with the file at path. An empty path
// yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to load config %v", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown key %q in config %v", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %v", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Format {
	case FormatYAML, FormatText:
		return nil
	}
	return errors.Errorf("unknown format %q", c.Format)
}
