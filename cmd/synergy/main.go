// Command synergy is a terminal participant for a Keyword Synergy server.
//
// It joins the global pool (or a room), prints keywords and draws as they
// are pushed, and reads commands from stdin:
//
//	add <word>   submit a keyword
//	draw         draw two keywords
//	keywords     list the pool
//	history      list recent draws
//	status       show connection, draw and timer
//	quit         leave
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is what the terminal client reads from flags and environment.
type Config struct {
	server     string
	name       string
	room       string
	createRoom string
	verbose    bool
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.server, "http://") && !strings.HasPrefix(c.server, "https://") {
		return fmt.Errorf("--server must start with http:// or https://: %q", c.server)
	}
	if c.room != "" && c.createRoom != "" {
		return fmt.Errorf("--room and --create-room cannot be used together")
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SYNERGY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "synergy",
		Short: "Join a Keyword Synergy session from the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "http://localhost:8080", "server base URL (env: SYNERGY_SERVER)")
	fs.StringVarP(&cfg.name, "name", "n", "", "display name; blank picks a guest name (env: SYNERGY_NAME)")
	fs.StringVarP(&cfg.room, "room", "r", "", "room ID to join (env: SYNERGY_ROOM)")
	fs.StringVar(&cfg.createRoom, "create-room", "", "create a room with this name and host it (env: SYNERGY_CREATE_ROOM)")
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
// command line, after parsing so an explicit flag always wins.
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
