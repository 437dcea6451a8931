package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	databaseURL    string
	mediaBaseURL   string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	redisURL       string
	roomTimeout    time.Duration
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.databaseURL == "" {
		return errors.New("--database-url is required (the media catalog lives in Postgres)")
	}
	if c.mediaBaseURL != "" && !strings.HasPrefix(c.mediaBaseURL, "http") {
		return fmt.Errorf("invalid media base url: %s", c.mediaBaseURL)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FAKEOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "fakeout",
		Short:         "Backend for a real-vs-AI media quiz, with live multiplayer rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FAKEOUT_BIND)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string for the media catalog and leaderboard (env: FAKEOUT_DATABASE_URL)")
	fs.StringVar(&cfg.mediaBaseURL, "media-base-url", "", "base url prepended to relative media paths, e.g. http://cdn.example.com (env: FAKEOUT_MEDIA_BASE_URL)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before a silent websocket connection is dropped (env: FAKEOUT_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FAKEOUT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FAKEOUT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FAKEOUT_PROFILE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection string for global pair statistics; counters stay in-process when unset (env: FAKEOUT_REDIS_URL)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 60*time.Minute, "time before idle multiplayer rooms are reaped (env: FAKEOUT_ROOM_TIMEOUT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle solo sessions are reaped (env: FAKEOUT_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FAKEOUT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FAKEOUT_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FAKEOUT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FAKEOUT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("fakeout v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
