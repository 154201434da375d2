package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	sourceFile     = "file"
	sourceSQLite   = "sqlite"
	sourceSupabase = "supabase"
)

type Config struct {
	bind           string
	contentPath    string
	contentSource  string
	envFile        string
	fetchTimeout   time.Duration
	port           int
	prefix         string
	profile        bool
	roundsPerLevel int
	sessionTimeout time.Duration
	supabaseKey    string
	supabaseURL    string
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
	if c.roundsPerLevel < 1 {
		return fmt.Errorf("invalid rounds per level (must be a positive integer): %d", c.roundsPerLevel)
	}
	if c.fetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout (must be positive): %s", c.fetchTimeout)
	}

	switch c.contentSource {
	case sourceFile, sourceSQLite:
		if c.contentPath == "" {
			return fmt.Errorf("--content-path is required when --content-source is %s", c.contentSource)
		}
	case sourceSupabase:
		if c.supabaseURL == "" || c.supabaseKey == "" {
			return errors.New("both --supabase-url and --supabase-key must be provided for the supabase content source")
		}
	default:
		return fmt.Errorf("invalid content source (must be one of %s, %s, %s): %q", sourceSupabase, sourceFile, sourceSQLite, c.contentSource)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadEnvFile reads an optional .env file into the process environment.
// Variables already set take precedence.
func loadEnvFile(args []string) error {
	path, explicit := ".env", false
	if env := os.Getenv("TRUTHORDARE_ENV_FILE"); env != "" {
		path, explicit = env, true
	}

	for i, arg := range args {
		switch {
		case arg == "--env-file" && i+1 < len(args):
			path, explicit = args[i+1], true
		case strings.HasPrefix(arg, "--env-file="):
			path, explicit = strings.TrimPrefix(arg, "--env-file="), true
		}
	}

	if err := godotenv.Load(path); err != nil {
		if explicit {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	return nil
}

func bindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRUTHORDARE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:           "truthordare",
		Short:         "A truth or dare party game, served as a single webapp.",
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

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRUTHORDARE_BIND)")
	fs.StringVar(&cfg.contentPath, "content-path", "", "path to the content file or sqlite database (env: TRUTHORDARE_CONTENT_PATH)")
	fs.StringVar(&cfg.contentSource, "content-source", sourceSupabase, "where prompts are loaded from: supabase, file or sqlite (env: TRUTHORDARE_CONTENT_SOURCE)")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file to read before resolving flags (env: TRUTHORDARE_ENV_FILE)")
	fs.DurationVar(&cfg.fetchTimeout, "fetch-timeout", 30*time.Second, "time allowed for the startup content fetch (env: TRUTHORDARE_FETCH_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TRUTHORDARE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TRUTHORDARE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TRUTHORDARE_PROFILE)")
	fs.IntVar(&cfg.roundsPerLevel, "rounds-per-level", 10, "default rounds before the difficulty goes up (env: TRUTHORDARE_ROUNDS_PER_LEVEL)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: TRUTHORDARE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.supabaseKey, "supabase-key", "", "supabase anon key (env: TRUTHORDARE_SUPABASE_KEY)")
	fs.StringVar(&cfg.supabaseURL, "supabase-url", "", "supabase project url (env: TRUTHORDARE_SUPABASE_URL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TRUTHORDARE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TRUTHORDARE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TRUTHORDARE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TRUTHORDARE_VERSION)")

	bindFlags(fs, v)

	cmd.AddCommand(newImportCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("truthordare v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
