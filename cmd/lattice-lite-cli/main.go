// Package main provides the lattice-lite-cli command line interface.
package main

import (
	"fmt"
	"io"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/logger"
)

const (
	version = "1.0.0"
	appName = "lattice-lite-cli"

	envPrefix = "LATTICE_LITE_"

	configFlag = "config"
	levelFlag  = "level"
	formatFlag = "format"
	outputFlag = "output"
)

// OutputFormat selects how binary values are written into JSON exports.
type OutputFormat string

const (
	FormatHex    OutputFormat = "hex"
	FormatBase64 OutputFormat = "base64"
)

// runtimeEnv is resolved once in Before and shared by every command. A bad
// config does not stop Before; paramsErr is reported by the commands that
// need parameters, so version and config init still work.
type runtimeEnv struct {
	params    latticelite.Params
	paramsErr error
	format    OutputFormat
	log       zerolog.Logger
}

const envKey = "env"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "toy lattice key encapsulation (educational, not secure)"
	app.UsageText = appName + " [global options] command [command options]"
	app.Version = fmt.Sprintf("%s (library %s)", version, latticelite.Version)
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Metadata = map[string]interface{}{}
	app.Flags = globalFlags()
	app.Before = before
	app.Commands = commands()
	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Usage:   "YAML or TOML config file (default " + core.DefaultConfigPath + " when present)",
			EnvVars: []string{envPrefix + "CONFIG"},
		},
		&cli.StringFlag{
			Name:    levelFlag,
			Aliases: []string{"l"},
			Usage:   "parameter set: LITE-16, LITE-16-LN or LITE-16-S3",
			EnvVars: []string{envPrefix + "LEVEL"},
		},
		&cli.StringFlag{
			Name:    logger.LogLevelFlag,
			Usage:   "log level: trace, debug, info, warn, error",
			EnvVars: []string{envPrefix + "LOGLEVEL"},
		},
		&cli.StringFlag{
			Name:    logger.LogFileFlag,
			Usage:   "also write JSON logs to this rolling file",
			EnvVars: []string{envPrefix + "LOGFILE"},
		},
		&cli.StringFlag{
			Name:    formatFlag,
			Aliases: []string{"f"},
			Value:   string(FormatHex),
			Usage:   "encoding of binary values: hex or base64",
			EnvVars: []string{envPrefix + "FORMAT"},
		},
		&cli.StringFlag{
			Name:    outputFlag,
			Aliases: []string{"o"},
			Usage:   "write the result to this file (mode 0600) instead of stdout",
			EnvVars: []string{envPrefix + "OUTPUT"},
		},
	}
}

// loadConfig reads --config, or the default path when it exists. Flags and
// environment variables override what the file says.
func loadConfig(c *cli.Context) (*core.Config, error) {
	path := c.String(configFlag)
	if path == "" {
		if expanded, err := homedir.Expand(core.DefaultConfigPath); err == nil {
			if _, err := os.Stat(expanded); err == nil {
				path = expanded
			}
		}
	}
	cfg := &core.Config{}
	if path != "" {
		var err error
		if cfg, err = core.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(levelFlag) {
		cfg.Level = c.String(levelFlag)
	}
	return cfg, nil
}

func before(c *cli.Context) error {
	format := OutputFormat(c.String(formatFlag))
	if format != FormatHex && format != FormatBase64 {
		return cli.Exit(fmt.Sprintf("unknown format %q (want hex or base64)", format), 1)
	}

	env := &runtimeEnv{format: format}
	cfg, cfgErr := loadConfig(c)
	fallbackLevel := ""
	if cfgErr == nil {
		fallbackLevel = cfg.LogLevel
	}
	log, err := logger.CreateLoggerFromContext(c, fallbackLevel)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	env.log = log

	if cfgErr != nil {
		env.paramsErr = cfgErr
	} else {
		env.params, env.paramsErr = cfg.Params()
	}
	if env.paramsErr != nil {
		log.Debug().Err(env.paramsErr).Msg("Parameters unresolved")
	} else {
		log.Debug().Str("set", string(env.params.Set)).Int("noise_bound", env.params.NoiseBound).Str("hash", env.params.Hash).Msg("Parameters resolved")
	}
	c.App.Metadata[envKey] = env
	return nil
}

// action adapts a command body to urfave's ActionFunc: the error is logged
// and turned into exit status 1. Commands run only with resolved parameters.
func action(fn func(*cli.Context, *runtimeEnv) error) cli.ActionFunc {
	return run(fn, true)
}

// lenientAction is action for commands that cope with unresolved parameters.
func lenientAction(fn func(*cli.Context, *runtimeEnv) error) cli.ActionFunc {
	return run(fn, false)
}

func run(fn func(*cli.Context, *runtimeEnv) error, needParams bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, ok := c.App.Metadata[envKey].(*runtimeEnv)
		if !ok {
			return cli.Exit("internal error: runtime not initialised", 1)
		}
		if needParams && env.paramsErr != nil {
			env.log.Error().Err(env.paramsErr).Msg("Resolving parameters")
			return cli.Exit(env.paramsErr.Error(), 1)
		}
		if err := fn(c, env); err != nil {
			env.log.Error().Err(err).Str("command", c.Command.Name).Msg("Command failed")
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}
}
