package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/mjl-/addrlist/address"
	"github.com/mjl-/addrlist/buildvar"
	"github.com/mjl-/addrlist/config"
	"github.com/mjl-/addrlist/message"
	"github.com/mjl-/addrlist/mlog"
)

var commands = []struct {
	cmd string
	fn  func(c *cmd)
}{
	{"split", cmdSplit},
	{"parse", cmdParse},
	{"format", cmdFormat},
	{"bare", cmdBare},
	{"encode", cmdEncode},
	{"write", cmdWrite},
	{"writegroup", cmdWriteGroup},
	{"trim", cmdTrim},
	{"header", cmdHeader},
	{"recipients", cmdRecipients},
	{"serve", cmdServe},
	{"config test", cmdConfigTest},
	{"config describe", cmdConfigDescribe},
	{"version", cmdVersion},
	{"help", cmdHelp},
	{"helpall", cmdHelpall},
}

var cmds []cmd

func init() {
	for _, xc := range commands {
		c := cmd{words: strings.Split(xc.cmd, " "), fn: xc.fn}
		cmds = append(cmds, c)
	}
}

type cmd struct {
	words []string
	fn    func(c *cmd)

	// Set before calling command.
	flag     *flag.FlagSet
	flagArgs []string
	_gather  bool // Set when using Parse to gather usage for a command.

	// Set by invoked command or Parse.
	unlisted bool   // If set, command is not listed until at least some words are matched from command.
	params   string // Arguments to command. Multiple lines possible.
	help     string // Additional explanation. First line is synopsis, the rest is only printed for an explicit help/usage for that command.
	args     []string

	log mlog.Log
}

func (c *cmd) Parse() []string {
	// To gather params and usage information, we just run the command but cause this
	// panic after the command has registered its flags and set its params and help
	// information. This is then caught and that info printed.
	if c._gather {
		panic("gather")
	}

	c.flag.Usage = c.Usage
	c.flag.Parse(c.flagArgs)
	c.args = c.flag.Args()
	return c.args
}

func (c *cmd) gather() {
	c.flag = flag.NewFlagSet("addrlist "+strings.Join(c.words, " "), flag.ExitOnError)
	c._gather = true
	defer func() {
		x := recover()
		// panic generated by Parse.
		if x != "gather" {
			panic(x)
		}
	}()
	c.fn(c)
}

func (c *cmd) makeUsage() string {
	var r strings.Builder
	cs := "addrlist " + strings.Join(c.words, " ")
	for i, line := range strings.Split(strings.TrimSpace(c.params), "\n") {
		s := ""
		if i == 0 {
			s = "usage:"
		}
		if line != "" {
			line = " " + line
		}
		fmt.Fprintf(&r, "%6s %s%s\n", s, cs, line)
	}
	c.flag.SetOutput(&r)
	c.flag.PrintDefaults()
	return r.String()
}

func (c *cmd) printUsage() {
	fmt.Fprint(os.Stderr, c.makeUsage())
	if c.help != "" {
		fmt.Fprint(os.Stderr, "\n"+c.help+"\n")
	}
}

func (c *cmd) Usage() {
	c.printUsage()
	os.Exit(2)
}

func cmdHelp(c *cmd) {
	c.params = "[command ...]"
	c.help = `Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}

	prefix := func(l, pre []string) bool {
		if len(pre) > len(l) {
			return false
		}
		return slices.Equal(pre, l[:len(pre)])
	}

	var partial []cmd
	for _, c := range cmds {
		if slices.Equal(c.words, args) {
			c.gather()
			fmt.Print(c.makeUsage())
			if c.help != "" {
				fmt.Print("\n" + c.help + "\n")
			}
			return
		} else if prefix(c.words, args) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 0 {
		fmt.Fprintf(os.Stderr, "%s: unknown command\n", strings.Join(args, " "))
		os.Exit(2)
	}
	for _, c := range partial {
		c.gather()
		line := "addrlist " + strings.Join(c.words, " ")
		fmt.Printf("%s\n", line)
		if c.help != "" {
			fmt.Printf("\t%s\n", strings.Split(c.help, "\n")[0])
		}
	}
}

func cmdHelpall(c *cmd) {
	c.unlisted = true
	c.help = `Print all detailed usage and help information for all listed commands.

Used to generate documentation.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	n := 0
	for _, c := range cmds {
		c.gather()
		if c.unlisted {
			continue
		}
		if n > 0 {
			fmt.Fprintf(os.Stderr, "\n")
		}
		n++

		fmt.Fprintf(os.Stderr, "# addrlist %s\n\n", strings.Join(c.words, " "))
		if c.help != "" {
			fmt.Fprintln(os.Stderr, c.help+"\n")
		}
		s := c.makeUsage()
		s = "\t" + strings.ReplaceAll(s, "\n", "\n\t")
		fmt.Fprintln(os.Stderr, s)
	}
}

func usage(l []cmd, unlisted bool) {
	var lines []string
	if !unlisted {
		lines = append(lines, "addrlist [-config addrlist.conf] [-loglevel level] ...")
	}
	for _, c := range l {
		c.gather()
		if c.unlisted && !unlisted {
			continue
		}
		for _, line := range strings.Split(c.params, "\n") {
			x := append([]string{"addrlist"}, c.words...)
			if line != "" {
				x = append(x, line)
			}
			lines = append(lines, strings.Join(x, " "))
		}
	}
	for i, line := range lines {
		pre := "       "
		if i == 0 {
			pre = "usage: "
		}
		fmt.Fprintln(os.Stderr, pre+line)
	}
	os.Exit(2)
}

var configPath string
var loglevel string // Empty means the level from the config file is used.

// mustLoadConfig loads the config file if one was specified, and otherwise
// returns the default config. A log level from the command-line takes
// precedence over the config file.
func mustLoadConfig() config.Config {
	conf := config.Default()
	if configPath != "" {
		var err error
		conf, err = config.Load(configPath)
		xcheckf(err, "loading config")
	}
	if loglevel != "" {
		level, ok := mlog.Levels[loglevel]
		if !ok {
			log.Fatalf("unknown loglevel %q", loglevel)
		}
		conf.Log[""] = level
	}
	conf.ApplyLogLevels()
	return conf
}

func envString(k, def string) string {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	return s
}

func main() {
	log.SetFlags(0)

	flag.StringVar(&configPath, "config", envString("ADDRLISTCONF", ""), "configuration file, defaults to $ADDRLISTCONF, without config file the defaults are used")
	flag.StringVar(&loglevel, "loglevel", "", "if non-empty, this log level is set early in startup, one of: "+strings.Join(mlog.LevelNames(), ", "))

	var cpuprofile, memprofile, tracefile string
	flag.StringVar(&cpuprofile, "cpuprof", "", "store cpu profile to file")
	flag.StringVar(&memprofile, "memprof", "", "store mem profile to file")
	flag.StringVar(&tracefile, "trace", "", "store execution trace to file")

	flag.Usage = func() { usage(cmds, false) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage(cmds, false)
	}

	defer startProfiles(cpuprofile, memprofile, tracefile)()

	if loglevel != "" {
		level, ok := mlog.Levels[loglevel]
		if !ok {
			log.Fatalf("unknown loglevel %q", loglevel)
		}
		mlog.SetConfig(map[string]slog.Level{"": level})
		// note: SetConfig is called again when a command loads the config.
	}

	var partial []cmd
next:
	for _, c := range cmds {
		for i, w := range c.words {
			if i >= len(args) || w != args[i] {
				if i > 0 {
					partial = append(partial, c)
				}
				continue next
			}
		}
		c.flag = flag.NewFlagSet("addrlist "+strings.Join(c.words, " "), flag.ExitOnError)
		c.flagArgs = args[len(c.words):]
		c.log = mlog.New(strings.Join(c.words, ""), nil)
		c.fn(&c)
		return
	}
	if len(partial) > 0 {
		usage(partial, true)
	}
	usage(cmds, false)
}

func xcheckf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Fatalf("%s: %s", msg, err)
}

// parserFlags registers the flags that override parser options from the config
// file.
type parserFlags struct {
	fs          *flag.FlagSet
	defaultHost string
	nestGroups  bool
	returnError bool
	validate    bool
}

func (pf *parserFlags) register(fs *flag.FlagSet) {
	pf.fs = fs
	fs.StringVar(&pf.defaultHost, "defaulthost", "", "host for addresses without @host")
	fs.BoolVar(&pf.nestGroups, "nestgroups", false, "keep groups instead of adding their members to the list")
	fs.BoolVar(&pf.returnError, "returnerror", false, "fail at the first malformed address instead of skipping it")
	fs.BoolVar(&pf.validate, "validate", false, "apply strict RFC 5322 syntax rules and validate hosts")
}

// options returns the parser options from conf, with explicitly set flags
// applied, so -validate=false turns off validation enabled in the config file.
func (pf parserFlags) options(conf config.Config) address.Options {
	opts := conf.Options()
	if pf.fs == nil {
		return opts
	}
	pf.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "defaulthost":
			if pf.defaultHost != "" {
				opts.DefaultHost = pf.defaultHost
			}
		case "nestgroups":
			opts.NestGroups = pf.nestGroups
		case "returnerror":
			opts.ReturnError = pf.returnError
		case "validate":
			opts.Validate = pf.validate
		}
	})
	return opts
}

func cmdSplit(c *cmd) {
	c.params = "[-delimiters chars] list"
	c.help = `Split an address list into its top-level items, printing one quoted item per line.

Delimiters inside quoted strings and groups do not split. Items are not trimmed.
`
	var delimiters string
	c.flag.StringVar(&delimiters, "delimiters", ",", "characters to split on")
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	for _, s := range address.Split(args[0], delimiters) {
		fmt.Printf("%q\n", s)
	}
}

func cmdParse(c *cmd) {
	c.params = "[flags] list"
	c.help = `Parse an address list and print the addresses and groups as JSON.

Parser options from the config file can be enabled with flags.
`
	var pf parserFlags
	pf.register(c.flag)
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	conf := mustLoadConfig()

	p := address.NewParser(c.log.Logger, pf.options(conf))
	items, err := p.Parse(args[0])
	xcheckf(err, "parsing address list")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	err = enc.Encode(address.Records(items))
	xcheckf(err, "writing json")
}

func cmdFormat(c *cmd) {
	c.params = "[flags] list"
	c.help = `Parse an address list and print it in canonical form.

Addresses configured as Filter in the config file are left out, as are duplicate
addresses.
`
	var pf parserFlags
	pf.register(c.flag)
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	conf := mustLoadConfig()

	p := address.NewParser(c.log.Logger, pf.options(conf))
	items, err := p.Parse(args[0])
	xcheckf(err, "parsing address list")
	fmt.Println(address.ListString(items, conf.Filter))
}

func cmdBare(c *cmd) {
	c.params = "[-defaulthost host] [-multiple] list"
	c.help = `Print the bare address (localpart@host) from an address list.

Without -multiple, only the last address of the list is printed.
`
	var defaultHost string
	var multiple bool
	c.flag.StringVar(&defaultHost, "defaulthost", "", "host for addresses without @host")
	c.flag.BoolVar(&multiple, "multiple", false, "print all addresses, one per line")
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	conf := mustLoadConfig()
	if defaultHost == "" {
		defaultHost = conf.DefaultHost
	}

	if !multiple {
		fmt.Println(address.BareAddress(args[0], defaultHost))
		return
	}
	for _, s := range address.BareAddresses(args[0], defaultHost) {
		fmt.Println(s)
	}
}

func cmdEncode(c *cmd) {
	c.params = "[-personal] text"
	c.help = `Quote and escape text for use as a word in an address header, if needed.

Without -personal, text is encoded as localpart or group name.
`
	var personal bool
	c.flag.BoolVar(&personal, "personal", false, "encode as display name")
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	kind := address.KindAddress
	if personal {
		kind = address.KindPersonal
	}
	fmt.Println(address.Encode(args[0], kind))
}

func cmdWrite(c *cmd) {
	c.params = "mailbox host [personal]"
	c.help = "Print an address formatted for a message header."
	args := c.Parse()
	if len(args) != 2 && len(args) != 3 {
		c.Usage()
	}
	var personal string
	if len(args) == 3 {
		personal = args[2]
	}
	fmt.Println(address.WriteAddress(args[0], args[1], personal))
}

func cmdWriteGroup(c *cmd) {
	c.params = "name [address ...]"
	c.help = `Print a group formatted for a message header.

Addresses must already be formatted, e.g. with the write command.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}
	fmt.Println(address.WriteGroupAddress(args[0], args[1:]))
}

func cmdTrim(c *cmd) {
	c.params = "address"
	c.help = "Remove surrounding whitespace and angle brackets from an address."
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	fmt.Println(address.TrimAddress(args[0]))
}

func cmdHeader(c *cmd) {
	c.params = "[-smtputf8] [-maxsize bytes] [flags] name list"
	c.help = `Print a message header with an address list, e.g. To or Cc.

Long headers are folded. Non-ASCII display names are written as RFC 2047
encoded-words unless -smtputf8 is set. Addresses with non-ASCII localpart or
host are an error without -smtputf8. With -maxsize, a header longer than
maxsize bytes, including the line ending, is an error.
`
	var smtputf8 bool
	var maxSize int64
	var pf parserFlags
	c.flag.BoolVar(&smtputf8, "smtputf8", false, "allow utf-8 in headers")
	c.flag.Int64Var(&maxSize, "maxsize", 0, "maximum header size in bytes, 0 for no limit")
	pf.register(c.flag)
	args := c.Parse()
	if len(args) != 2 {
		c.Usage()
	}
	conf := mustLoadConfig()

	opts := pf.options(conf)
	items, err := address.NewParser(c.log.Logger, opts).Parse(args[1])
	xcheckf(err, "parsing address list")

	err = composeHeader(os.Stdout, args[0], items, smtputf8, maxSize)
	xcheckf(err, "composing header")
}

// composeHeader writes header k with items to w.
func composeHeader(w io.Writer, k string, items []address.Item, smtputf8 bool, maxSize int64) (rerr error) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		if err, ok := x.(error); ok && errors.Is(err, message.ErrCompose) {
			rerr = err
			return
		}
		panic(x)
	}()

	xc := message.NewComposer(w, maxSize, smtputf8)
	xc.HeaderAddrs(k, items)
	xc.Flush()
	return nil
}

func cmdRecipients(c *cmd) {
	c.params = "[-smtputf8] [-defaulthost host] [-remove list] list ..."
	c.help = `Print the envelope recipients for address lists, one per line.

Addresses are added from each list in order, duplicates are printed once. Addresses
in the -remove list are removed afterwards.
`
	var smtputf8 bool
	var defaultHost, remove string
	c.flag.BoolVar(&smtputf8, "smtputf8", false, "allow non-ascii addresses")
	c.flag.StringVar(&defaultHost, "defaulthost", "", "host for addresses without @host")
	c.flag.StringVar(&remove, "remove", "", "address list to remove")
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}
	conf := mustLoadConfig()
	if defaultHost == "" {
		defaultHost = conf.DefaultHost
	}

	r := message.Recipients{SMTPUTF8: smtputf8, DefaultHost: defaultHost}
	for _, list := range args {
		err := r.Add(list)
		xcheckf(err, "adding recipients")
	}
	if remove != "" {
		err := r.Remove(remove)
		xcheckf(err, "removing recipients")
	}
	c.log.Debug("recipients", slog.Int("count", r.Len()))
	for _, s := range r.List() {
		fmt.Println(s)
	}
}

func cmdConfigTest(c *cmd) {
	c.params = "[file]"
	c.help = `Parses and validates the configuration file.

If valid, the command exits with status 0. If not valid, all errors encountered
are printed. Without file, the file from -config is checked.
`
	args := c.Parse()
	if len(args) > 1 {
		c.Usage()
	}
	p := configPath
	if len(args) == 1 {
		p = args[0]
	}
	if p == "" {
		log.Fatalf("no config file specified")
	}
	_, err := config.Load(p)
	xcheckf(err, "checking config")
	fmt.Println("config OK")
}

func cmdConfigDescribe(c *cmd) {
	c.params = ">addrlist.conf"
	c.help = `Prints an annotated example configuration for use as addrlist.conf.

Optional fields can be removed.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	err := config.Describe(os.Stdout)
	xcheckf(err, "describing config")
}

func cmdVersion(c *cmd) {
	c.help = "Prints this addrlist version."
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	fmt.Println(buildvar.Version)
	fmt.Printf("%s %s/%s\n", buildvar.GoVersion, runtime.GOOS, runtime.GOARCH)
}
