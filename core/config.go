package core

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

// DefaultConfigPath is where the CLI looks when --config is not given.
const DefaultConfigPath = "~/.lattice-lite/config.yaml"

// Config is the on-disk configuration. Unset fields fall back to the preset
// named by Level.
type Config struct {
	Level      string `yaml:"level,omitempty" toml:"level,omitempty"`
	NoiseBound *int   `yaml:"noise_bound,omitempty" toml:"noise_bound,omitempty"`
	Hash       string `yaml:"hash,omitempty" toml:"hash,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty" toml:"log_level,omitempty"`
}

// DefaultConfig describes the reference instance.
func DefaultConfig() *Config {
	bound := LITE16Params.NoiseBound
	return &Config{
		Level:      string(LITE16Params.Set),
		NoiseBound: &bound,
		Hash:       LITE16Params.Hash,
		LogLevel:   "info",
	}
}

type configFormat int

const (
	formatYAML configFormat = iota
	formatTOML
)

func formatFor(path string) (configFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, errors.Errorf("unsupported config extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// LoadConfig reads a YAML or TOML config file. A leading ~ is expanded.
func LoadConfig(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding %s", path)
	}
	format, err := formatFor(expanded)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := utils.CheckLength(int(info.Size()), utils.MaxInputFileSize); err != nil {
		return nil, errors.Wrapf(err, "config file %s", expanded)
	}

	file, err := os.Open(expanded)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	defer file.Close()

	var cfg Config
	switch format {
	case formatYAML:
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "parsing %s", expanded)
		}
	case formatTOML:
		md, err := toml.NewDecoder(file).Decode(&cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", expanded)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("parsing %s: unknown key %q", expanded, undecoded[0].String())
		}
	}
	return &cfg, nil
}

// SaveConfig writes cfg in the format implied by the path's extension.
func SaveConfig(path string, cfg *Config) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return errors.Wrapf(err, "expanding %s", path)
	}
	format, err := formatFor(expanded)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(expanded); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}
	file, err := os.OpenFile(expanded, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "writing config")
	}
	defer file.Close()

	switch format {
	case formatYAML:
		encoder := yaml.NewEncoder(file)
		if err := encoder.Encode(cfg); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		return encoder.Close()
	default:
		return errors.Wrap(toml.NewEncoder(file).Encode(cfg), "encoding config")
	}
}

// Params resolves the preset named by Level (LITE-16 when empty), applies
// the overrides and validates the result.
func (c *Config) Params() (latticelite.Params, error) {
	set := latticelite.LITE16
	if c != nil && c.Level != "" {
		set = latticelite.ParamSet(c.Level)
	}
	params, err := GetParams(set)
	if err != nil {
		return latticelite.Params{}, err
	}
	if c != nil {
		if c.NoiseBound != nil {
			params.NoiseBound = *c.NoiseBound
		}
		if c.Hash != "" {
			params.Hash = c.Hash
		}
	}
	if err := ValidateParams(params); err != nil {
		return latticelite.Params{}, errors.Wrap(err, "invalid configuration")
	}
	return params, nil
}
