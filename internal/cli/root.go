// Package cli implements the solr command line tool.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solrgo/solr"
)

type rootFlags struct {
	url        string
	configFile string
	username   string
	password   string
	timeout    time.Duration
	retries    int
	rateLimit  float64
	debug      bool
}

// New builds the root command with all subcommands attached.
func New() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "solr",
		Short:         "Query and update a Solr-style search server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.url, "url", "http://localhost:8983/solr", "server core URL")
	pf.StringVar(&flags.configFile, "config", "", "YAML client config file (overrides --url)")
	pf.StringVar(&flags.username, "user", "", "HTTP Basic auth user")
	pf.StringVar(&flags.password, "pass", "", "HTTP Basic auth password")
	pf.DurationVar(&flags.timeout, "timeout", solr.DefaultTimeout, "request timeout")
	pf.IntVar(&flags.retries, "retries", solr.DefaultMaxRetries, "retries after transport failures")
	pf.Float64Var(&flags.rateLimit, "rate-limit", 0, "max requests per second (0 = unlimited)")
	pf.BoolVar(&flags.debug, "debug", false, "log requests and responses")

	root.AddCommand(
		newQueryCmd(flags),
		newAddCmd(flags),
		newDeleteCmd(flags),
		newCommitCmd(flags),
		newOptimizeCmd(flags),
	)
	return root
}

// client builds a client from the config file when given, otherwise
// from the command line flags.
func (f *rootFlags) client() (*solr.Client, error) {
	var opts []solr.Option
	if f.username != "" {
		opts = append(opts, solr.WithBasicAuth(f.username, f.password))
	}
	opts = append(opts,
		solr.WithTimeout(f.timeout),
		solr.WithMaxRetries(f.retries),
		solr.WithRateLimit(f.rateLimit),
	)
	if f.debug {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
		opts = append(opts, solr.WithLogger(log))
	}

	if f.configFile != "" {
		cfg, err := solr.LoadConfigFile(f.configFile)
		if err != nil {
			return nil, err
		}
		return cfg.NewClient(opts...)
	}
	if f.url == "" {
		return nil, fmt.Errorf("either --url or --config is required")
	}
	return solr.New(f.url, opts...)
}
