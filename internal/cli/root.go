// Package cli defines the anime-catalog command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/config"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
)

// Version is set at build time.
var Version = "dev"

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

// app carries state resolved once in PersistentPreRunE.
type app struct {
	flags rootFlags
	cfg   *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "anime-catalog",
		Short: "Cache the Jikan popularity listing and serve it as one catalog",
		Long: "anime-catalog walks the Jikan top anime listing under a request-rate ceiling,\n" +
			"caches the result in a document store and serves the whole catalog over HTTP.\n" +
			"A terminal browser pages and searches the served catalog locally.",
		Example: `  # Serve the catalog from MongoDB
  STORE_URI=mongodb://localhost:27017/anime anime-catalog serve

  # Populate a cold store without serving
  anime-catalog warm

  # Browse a running backend
  anime-catalog browse --backend http://localhost:3000`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return a.setup(c)
		},
	}

	cmd.PersistentFlags().StringVar(&a.flags.configFile, "config", "", "YAML config file (default ./anime-catalog.yaml if present)")
	cmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&a.flags.logFormat, "log-format", "", "Log format: json, console (env LOG_FORMAT)")

	cmd.AddCommand(
		newServeCmd(a),
		newBrowseCmd(a),
		newWarmCmd(a),
		newPingCmd(a),
		newPagesCmd(a),
	)
	return cmd
}

func (a *app) setup(c *cobra.Command) error {
	opts := config.DefaultOptions()
	opts.ConfigFile = a.flags.configFile

	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		format, err := logging.ValidateFormat(a.flags.logFormat)
		if err != nil {
			return err
		}
		cfg.LogFormat = format
	}

	logCfg := cfg.Logging()
	logCfg.Output = c.ErrOrStderr()
	logging.Setup(logCfg)

	a.cfg = cfg
	return nil
}
