/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/moviechain/chain"
	"github.com/Seednode/moviechain/tmdb"
)

type Config struct {
	bind           string
	blockedTerms   []string
	cache          string
	cacheTTL       time.Duration
	difficultyStep int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	suggestDelay   time.Duration
	tlsCert        string
	tlsKey         string
	tmdbKey        string
	tmdbTimeout    time.Duration
	tmdbURL        string
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
	if strings.TrimSpace(c.tmdbKey) == "" {
		return errors.New("a TMDB API key or read access token is required (--tmdb-api-key or MOVIECHAIN_TMDB_API_KEY)")
	}
	if c.tmdbTimeout <= 0 {
		return fmt.Errorf("invalid tmdb timeout (must be positive): %s", c.tmdbTimeout)
	}
	if c.suggestDelay <= 0 {
		return fmt.Errorf("invalid suggestion delay (must be positive): %s", c.suggestDelay)
	}
	if c.difficultyStep < 1 {
		return fmt.Errorf("invalid difficulty step (must be at least 1): %d", c.difficultyStep)
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
	v.SetEnvPrefix("MOVIECHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "moviechain",
		Short:         "Link actors and movies in a chain against the computer, in your browser.",
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

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MOVIECHAIN_BIND)")
	fs.StringSliceVar(&cfg.blockedTerms, "blocked-terms", chain.DefaultBlockedTerms, "titles or overviews containing any of these terms are never matched (env: MOVIECHAIN_BLOCKED_TERMS)")
	fs.StringVar(&cfg.cache, "cache", ":memory:", "sqlite database for caching TMDB responses, or empty to disable (env: MOVIECHAIN_CACHE)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", 6*time.Hour, "how long cached TMDB responses stay valid, or 0 to keep them forever (env: MOVIECHAIN_CACHE_TTL)")
	fs.IntVar(&cfg.difficultyStep, "difficulty-step", chain.DefaultDifficultyStep, "automated turns between difficulty increases (env: MOVIECHAIN_DIFFICULTY_STEP)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MOVIECHAIN_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MOVIECHAIN_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MOVIECHAIN_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: MOVIECHAIN_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.suggestDelay, "suggest-delay", chain.DefaultSuggestDelay, "typing pause before autocomplete suggestions are looked up (env: MOVIECHAIN_SUGGEST_DELAY)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MOVIECHAIN_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MOVIECHAIN_TLS_KEY)")
	fs.StringVar(&cfg.tmdbKey, "tmdb-api-key", "", "TMDB v3 API key or v4 read access token (env: MOVIECHAIN_TMDB_API_KEY)")
	fs.DurationVar(&cfg.tmdbTimeout, "tmdb-timeout", tmdb.DefaultTimeout, "timeout for each TMDB request (env: MOVIECHAIN_TMDB_TIMEOUT)")
	fs.StringVar(&cfg.tmdbURL, "tmdb-url", tmdb.DefaultBaseURL, "base URL of the TMDB API (env: MOVIECHAIN_TMDB_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MOVIECHAIN_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MOVIECHAIN_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("moviechain v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
