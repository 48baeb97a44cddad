package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"particlex/pkg/config"
	"particlex/pkg/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	binds   map[*cobra.Command]bind
}

func newRootCmd() *cobra.Command {
	a := &app{binds: make(map[*cobra.Command]bind)}
	root := &cobra.Command{
		Use:   "particlex",
		Short: "Tooling for the ParticleX blog theme",
		Long: `particlex bundles the build-time helpers of the ParticleX theme:

  lazyload   replay lazy image loading against a page, headlessly
  cdn        rewrite the CDN origin in sources and theme files
  filter     run the before/after render hooks over post content
  encrypt    seal a post behind a passphrase
  decrypt    open a sealed post

Settings come from particlex.yml (or --config), PARTICLEX_* environment
variables and flags, in increasing priority.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./particlex.yml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	root.AddCommand(
		newLazyLoadCmd(a),
		newCDNCmd(a),
		newFilterCmd(a),
		newEncryptCmd(a),
		newDecryptCmd(a),
	)
	return root
}

// bind maps config keys onto the flags that override them.
type bind map[string]string

// bindFlags makes cmd's flags override the given config keys.
func (a *app) bindFlags(cmd *cobra.Command, b bind) {
	a.binds[cmd] = b
}

func (a *app) init(cmd *cobra.Command) error {
	a.v = config.New(a.cfgFile)
	binds := bind{"log.level": "log-level", "log.format": "log-format"}
	for key, name := range a.binds[cmd] {
		binds[key] = name
	}
	for key, name := range binds {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	if err := config.Read(a.v); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

// input opens the named file, or stdin when args is empty or "-".
func input(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}
	return f, nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	r, err := input(cmd, args)
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
