package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	roomadvisor "github.com/menta2k/room-advisor"
	"github.com/menta2k/room-advisor/internal/config"
	"github.com/menta2k/room-advisor/internal/logging"
	"github.com/menta2k/room-advisor/internal/utils"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	configPath string
	envFile    string
	backend    string
	logLevel   string
	logFormat  string
	workers    int

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "room-advisor",
		Short:         "Interior design suggestions from room photos",
		Version:       roomadvisor.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "JSON config file (default: "+config.GetConfigPath()+" when present)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "file with KEY=value pairs loaded into the environment")
	flags.StringVar(&opts.backend, "backend", "", "detection backend: hfapi or ollama")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.IntVar(&opts.workers, "workers", 0, "images analyzed concurrently")

	root.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newHarmonyCmd(),
	)
	return root
}

// load builds the configuration: defaults, then the config file, then the
// environment, then explicit flags
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}

	cfg := config.Default()
	path := o.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Inference.Backend = o.backend
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("workers") {
		cfg.Pipeline.Workers = o.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	logrus.WithField("backend", cfg.Inference.Backend).Debug("[Main] Configuration loaded")
	return cfg, nil
}
