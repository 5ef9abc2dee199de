package main

import (
	"github.com/jessevdk/go-flags"

	"github.com/haukened/rr-fwd/internal/dns/config"
)

// Options are the command-line flags. Any flag that is set overrides the
// file and environment configuration.
type Options struct {
	Config   string   `short:"c" long:"config" description:"Path to a YAML, TOML or JSON config file"`
	Port     int      `short:"p" long:"port" description:"UDP port to listen on"`
	Upstream []string `short:"u" long:"upstream" description:"Upstream server ip:port (repeatable)"`
	LogLevel string   `short:"l" long:"log-level" description:"Log verbosity" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	Version  bool     `short:"V" long:"version" description:"Print version and exit"`
}

// parseOptions parses args. A help request is reported as a *flags.Error of
// type flags.ErrHelp.
func parseOptions(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = appName
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return &opts, nil
}

// apply copies set flags onto cfg and revalidates it.
func (o *Options) apply(cfg *config.AppConfig) error {
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if len(o.Upstream) > 0 {
		cfg.Upstream = o.Upstream
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg.Validate()
}

func isHelp(err error) bool {
	fe, ok := err.(*flags.Error)
	return ok && fe.Type == flags.ErrHelp
}
