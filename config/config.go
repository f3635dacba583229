// Package config holds the configuration file for the addrlist command and
// server, in sconf format.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/mjl-/sconf"

	"github.com/mjl-/addrlist/address"
	"github.com/mjl-/addrlist/dns"
	"github.com/mjl-/addrlist/mlog"
)

// DefaultListen is the address the HTTP server listens on if not configured.
const DefaultListen = "localhost:8025"

// Config is the parsed form of addrlist.conf.
type Config struct {
	LogLevel         string            `sconf:"optional" sconf-doc:"NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be on their own line, they don't end a line. Do not escape or quote strings. Details: https://pkg.go.dev/github.com/mjl-/sconf.\n\n\nDefault log level, one of: error, info, debug, trace. Default: error."`
	PackageLogLevels map[string]string `sconf:"optional" sconf-doc:"Overrides of log level per package (e.g. address, addrapi, config)."`
	DefaultHost      string            `sconf:"optional" sconf-doc:"Host added to addresses without @host, e.g. example.org. If empty, such addresses remain without host."`
	NestGroups       bool              `sconf:"optional" sconf-doc:"Keep groups (e.g. 'friends: a@example.org, b@example.org;') as groups in parsed address lists. If false, the group members are added to the list as individual addresses."`
	ReturnError      bool              `sconf:"optional" sconf-doc:"Fail parsing of an address list at the first malformed address. If false, malformed addresses are skipped."`
	Validate         bool              `sconf:"optional" sconf-doc:"Apply strict RFC 5322 syntax rules to addresses, and validate hosts as (internationalized) domain names."`
	Filter           []string          `sconf:"optional" sconf-doc:"Addresses (localpart@host) to leave out when formatting address lists, compared case-insensitively."`
	Listen           string            `sconf:"optional" sconf-doc:"Address for the HTTP server with the API (at /api/) and prometheus metrics (at /metrics). Default: localhost:8025."`

	Log map[string]slog.Level `sconf:"-" json:"-"` // Parsed form of LogLevel and PackageLogLevels.
}

// Default returns a configuration with default values, as used without
// configuration file.
func Default() Config {
	return Config{
		LogLevel: "error",
		Listen:   DefaultListen,
		Log:      map[string]slog.Level{"": mlog.LevelError},
	}
}

// Load reads and checks the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config file: %v", err)
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// Parse parses a configuration file and checks its values, filling in defaults.
// All problems are returned, joined in a single error.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	if err := sconf.Parse(r, &c); err != nil {
		return Config{}, err
	}
	if errs := c.prepare(); len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

func (c *Config) prepare() (errs []error) {
	addErrorf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
	if logLevel, ok := mlog.Levels[c.LogLevel]; ok {
		c.Log = map[string]slog.Level{"": logLevel}
	} else {
		addErrorf("invalid log level %q, must be one of %s", c.LogLevel, strings.Join(mlog.LevelNames(), ", "))
	}
	for pkg, s := range c.PackageLogLevels {
		if logLevel, ok := mlog.Levels[s]; ok {
			if c.Log != nil {
				c.Log[pkg] = logLevel
			}
		} else {
			addErrorf("invalid package log level %q for package %q", s, pkg)
		}
	}

	if c.DefaultHost != "" {
		d, err := dns.ParseDomain(c.DefaultHost)
		if err != nil {
			addErrorf("invalid default host %q: %v", c.DefaultHost, err)
		} else if c.Validate {
			c.DefaultHost = d.ASCII
		}
	}

	for _, f := range c.Filter {
		if !strings.Contains(f, "@") {
			addErrorf("filter address %q must be of the form localpart@host", f)
		}
	}

	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		addErrorf("invalid listen address %q: %v", c.Listen, err)
	}

	return errs
}

// Options returns the parser options from the configuration.
func (c Config) Options() address.Options {
	return address.Options{
		DefaultHost: c.DefaultHost,
		NestGroups:  c.NestGroups,
		ReturnError: c.ReturnError,
		Validate:    c.Validate,
	}
}

// ApplyLogLevels sets the configured log levels for all loggers.
func (c Config) ApplyLogLevels() {
	if c.Log != nil {
		mlog.SetConfig(c.Log)
	}
}

// Describe writes an annotated example configuration file to w.
func Describe(w io.Writer) error {
	c := Config{
		LogLevel:         "info",
		PackageLogLevels: map[string]string{"address": "debug"},
		DefaultHost:      "example.org",
		Filter:           []string{"me@example.org"},
		Listen:           DefaultListen,
	}
	return sconf.Describe(w, &c)
}
