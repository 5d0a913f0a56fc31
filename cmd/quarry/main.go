// Command quarry runs the game server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quarrymc/quarry/pkg/config"
	"github.com/quarrymc/quarry/pkg/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := app().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "quarry",
		Usage: "A static world game server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.json",
				Usage:   "Path to the config file",
				EnvVars: []string{"QUARRY_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				EnvVars: []string{"QUARRY_DEBUG"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	log, err := newLogger(c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(c.String("config"))
	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("error loading config %q: %w", c.String("config"), err)
	}
	log.Info("loaded config", "file", v.ConfigFileUsed())

	srv, err := server.New(cfg, server.Options{Log: log})
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	ctx := logr.NewContext(c.Context, log)
	return srv.Start(ctx)
}

func newLogger(debug bool) (logr.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
