package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakif/keyword-synergy/internal/realtime"
	"github.com/sakif/keyword-synergy/internal/server"
)

// Config is everything the server binary reads from flags and environment.
type Config struct {
	bind           string
	port           int
	dbPath         string
	allowedOrigins []string
	publicURL      string
	natsURL        string
	natsSubject    string
	verbose        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if strings.TrimSpace(c.dbPath) == "" {
		return fmt.Errorf("--db-path must not be empty")
	}
	if c.publicURL != "" && !strings.HasPrefix(c.publicURL, "http://") && !strings.HasPrefix(c.publicURL, "https://") {
		return fmt.Errorf("--public-url must start with http:// or https://: %q", c.publicURL)
	}
	return nil
}

func (c *Config) server() server.Config {
	return server.Config{
		Bind:           c.bind,
		Port:           c.port,
		DBPath:         c.dbPath,
		AllowedOrigins: c.allowedOrigins,
		PublicURL:      c.publicURL,
		NATSURL:        c.natsURL,
		NATSSubject:    c.natsSubject,
	}
}

// newCmd builds the root command. Every flag can also be set through a
// SYNERGY_-prefixed environment variable (--db-path → SYNERGY_DB_PATH);
// an explicit flag wins over the environment.
func newCmd(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SYNERGY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "synergy-server",
		Short: "Keyword Synergy: a shared keyword pool with live draws for team icebreakers.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SYNERGY_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SYNERGY_PORT)")
	fs.StringVar(&cfg.dbPath, "db-path", "data/synergy.db", "path to the SQLite database file (env: SYNERGY_DB_PATH)")
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", []string{"*"}, "origins allowed for CORS and websocket upgrades (env: SYNERGY_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "externally visible base URL used in join links (env: SYNERGY_PUBLIC_URL)")
	fs.StringVar(&cfg.natsURL, "nats-url", "", "NATS server for multi-instance push fan-out (env: SYNERGY_NATS_URL)")
	fs.StringVar(&cfg.natsSubject, "nats-subject", realtime.DefaultNATSSubject, "NATS subject for push events (env: SYNERGY_NATS_SUBJECT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: SYNERGY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return applyEnv(cmd.Flags(), v)
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// applyEnv copies environment values into the flags left unset on the
// command line. It runs after parsing: a slice flag seeded before parsing
// would have a command-line value appended to it instead of replacing it.
func applyEnv(fs *pflag.FlagSet, v *viper.Viper) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if setErr := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); setErr != nil {
			err = fmt.Errorf("invalid value for SYNERGY_%s: %w", strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), setErr)
		}
	})
	return err
}
