package main

import (
	"io"
	"os"
	"strings"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "bridge",
		Short:         "NAMASTE to ICD-11 terminology bridge",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to a .env file")

	cmd.AddCommand(newServeCmd(opts), newIngestCmd(opts))
	return cmd
}

func (o *rootOptions) load(out io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg.Log, out), nil
}

func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = out })
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()
}
