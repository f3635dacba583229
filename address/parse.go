package address

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mjl-/addrlist/dns"
	"github.com/mjl-/addrlist/mlog"
)

var pkglog = mlog.New("address", nil)

// Header value that explicitly lists no recipients.
var undisclosedRegexp = regexp.MustCompile(`(?i)undisclosed-recipients:\s*;`)

var (
	errUnterminatedQuote   = errors.New("unterminated quoted string")
	errUnterminatedComment = errors.New("unterminated comment")
	errAngle               = errors.New("missing > after <")
	errTrailing            = errors.New("text after >")
	errEmptyAddress        = errors.New("empty address")
	errEmptyLocalpart      = errors.New("empty localpart")
	errEmptyHost           = errors.New("empty host after @")
	errNoHost              = errors.New("missing @host")
	errGroupName           = errors.New("empty group name")
	errGroupEnd            = errors.New("group not terminated with ;")
	errNestedGroup         = errors.New("group inside group")
)

// Options configure a Parser.
type Options struct {
	// Host for addresses without "@host". If empty, such addresses get no host.
	DefaultHost string

	// Return groups as Group items. If false, the members of groups are added
	// to the list as individual addresses, and the group names are lost.
	NestGroups bool

	// Abort parsing at the first malformed item and return its error. If
	// false, malformed items are skipped.
	ReturnError bool

	// Apply stricter RFC 5322 syntax rules: localparts must be dot-atoms or
	// quoted strings, hosts must be valid (IDNA) domain names or domain literals,
	// display names can only consist of atoms and quoted strings, and groups
	// must be terminated. Hosts are returned in lower-case ASCII form.
	Validate bool
}

// Parser parses address lists. A Parser is not modified after NewParser and can
// be used concurrently.
type Parser struct {
	opts Options
	log  mlog.Log
}

// NewParser returns a parser for opts. If elog is nil, the package logger is
// used.
func NewParser(elog *slog.Logger, opts Options) *Parser {
	log := pkglog
	if elog != nil {
		log = mlog.New("address", elog)
	}
	return &Parser{opts, log}
}

// Options returns the options the parser was created with.
func (p *Parser) Options() Options {
	return p.opts
}

// ParseList parses s with a parser for opts, see Parser.Parse.
func ParseList(s string, opts Options) ([]Item, error) {
	return NewParser(nil, opts).Parse(s)
}

// Parse parses an address list, e.g. the value of a To header, into addresses
// and groups.
//
// A list with an "undisclosed-recipients:;" group results in no items.
//
// Malformed items result in a *ParseError if Options.ReturnError is set, and
// are skipped otherwise.
func (p *Parser) Parse(s string) (items []Item, rerr error) {
	result := "ok"
	defer func() {
		if rerr != nil {
			result = "error"
		}
		metricParse.WithLabelValues(result).Inc()
	}()

	if undisclosedRegexp.MatchString(strings.TrimSpace(s)) {
		result = "undisclosed"
		return nil, nil
	}

	for _, text := range Split(s, ",") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if i := groupColon(text); i >= 0 {
			g, err := p.parseGroup(text, i)
			if err != nil {
				metricItem.WithLabelValues("group", "malformed").Inc()
				if p.opts.ReturnError {
					return nil, err
				}
				p.log.Debugx("skipping malformed group (continuing)", err, slog.String("item", text))
				continue
			}
			metricItem.WithLabelValues("group", "ok").Inc()
			if p.opts.NestGroups {
				items = append(items, g)
			} else {
				for _, a := range g.Members {
					items = append(items, a)
				}
			}
			continue
		}

		a, err := p.parseMailbox(text)
		if err != nil {
			metricItem.WithLabelValues("mailbox", "malformed").Inc()
			if p.opts.ReturnError {
				return nil, err
			}
			p.log.Debugx("skipping malformed address (continuing)", err, slog.String("item", text))
			continue
		}
		metricItem.WithLabelValues("mailbox", "ok").Inc()
		items = append(items, a)
	}
	return items, nil
}

// groupColon returns the offset of the ":" that starts a group, or -1 if s is
// not a group. The colon must be outside quoted strings, comments and angle
// brackets.
func groupColon(s string) int {
	var inQuote bool
	var depth int
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case c == '"' && depth == 0:
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case depth > 0:
		case c == '<':
			return -1
		case c == ':':
			return i
		}
	}
	return -1
}

func (p *Parser) parseGroup(text string, colon int) (Group, error) {
	perr := func(err error) (Group, error) {
		return Group{}, &ParseError{text, err}
	}

	name, err := p.phrase(text[:colon])
	if err != nil {
		return perr(fmt.Errorf("group name: %w", err))
	}
	if name == "" {
		return perr(errGroupName)
	}

	body := strings.TrimSpace(text[colon+1:])
	if s, ok := strings.CutSuffix(body, ";"); ok {
		body = s
	} else if p.opts.Validate {
		return perr(errGroupEnd)
	}

	g := Group{Name: name}
	if strings.TrimSpace(body) == "" {
		return g, nil
	}
	for _, mtext := range Split(body, ",") {
		mtext = strings.TrimSpace(mtext)
		if mtext == "" {
			continue
		}
		var a Address
		var err error
		if groupColon(mtext) >= 0 {
			err = &ParseError{mtext, errNestedGroup}
		} else {
			a, err = p.parseMailbox(mtext)
		}
		if err != nil {
			metricItem.WithLabelValues("member", "malformed").Inc()
			if p.opts.ReturnError {
				return Group{}, err
			}
			p.log.Debugx("skipping malformed group member (continuing)", err, slog.String("group", name), slog.String("item", mtext))
			continue
		}
		metricItem.WithLabelValues("member", "ok").Inc()
		g.Members = append(g.Members, a)
	}
	return g, nil
}

func (p *Parser) parseMailbox(item string) (Address, error) {
	perr := func(err error) (Address, error) {
		return Address{}, &ParseError{item, err}
	}

	text, comments, err := stripComments(item)
	if err != nil {
		return perr(err)
	}
	text = strings.TrimSpace(text)

	// mailbox = name-addr / addr-spec
	var phrase, spec string
	if lt := indexUnquoted(text, '<'); lt >= 0 {
		rest := text[lt+1:]
		gt := indexUnquoted(rest, '>')
		if gt < 0 {
			return perr(errAngle)
		}
		if strings.TrimSpace(rest[gt+1:]) != "" {
			return perr(errTrailing)
		}
		phrase, spec = text[:lt], rest[:gt]
	} else {
		spec = text
	}

	personal, err := p.phrase(phrase)
	if err != nil {
		return perr(fmt.Errorf("display name: %w", err))
	}
	mailbox, host, err := p.addrSpec(spec)
	if err != nil {
		return perr(err)
	}
	return Address{mailbox, host, personal, comments}, nil
}

// addrSpec parses "localpart@host", or "localpart" with the default host.
func (p *Parser) addrSpec(spec string) (mailbox, host string, rerr error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", errEmptyAddress
	}

	var lp string
	if at := lastIndexUnquoted(spec, '@'); at >= 0 {
		lp = strings.TrimSpace(spec[:at])
		host = strings.TrimSpace(spec[at+1:])
		if host == "" {
			return "", "", errEmptyHost
		}
	} else if p.opts.Validate && p.opts.DefaultHost == "" {
		return "", "", errNoHost
	} else {
		lp = spec
		host = p.opts.DefaultHost
	}
	if lp == "" {
		return "", "", errEmptyLocalpart
	}

	var err error
	if p.opts.Validate {
		if mailbox, err = parseLocalpart(lp); err != nil {
			return "", "", err
		}
		if strings.TrimSpace(mailbox) == "" {
			return "", "", errEmptyLocalpart
		}
		if host, err = parseHost(host); err != nil {
			return "", "", err
		}
		return mailbox, host, nil
	}

	if mailbox, err = looseLocalpart(lp); err != nil {
		return "", "", err
	}
	if i := strings.IndexAny(host, " \t\r\n<>()\",:;@\\"); i >= 0 {
		return "", "", fmt.Errorf("invalid character %q in host", host[i])
	}
	return mailbox, host, nil
}

// looseLocalpart unquotes quoted parts of a localpart, and rejects unquoted
// whitespace and special characters.
func looseLocalpart(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			w, n, err := unquote(s[i:], false)
			if err != nil {
				return "", err
			}
			b.WriteString(w)
			i += n - 1
			continue
		}
		if c <= ' ' || c == 0x7f || strings.IndexByte(`<>()[]:;@\,`, c) >= 0 {
			return "", fmt.Errorf("invalid character %q in localpart", c)
		}
		b.WriteByte(c)
	}
	// A quoted localpart of only whitespace would be written without localpart.
	if strings.TrimSpace(b.String()) == "" {
		return "", errEmptyLocalpart
	}
	return b.String(), nil
}

// phrase parses a display name. Quoted strings are unquoted, encoded-words are
// decoded, and words are joined with a single space.
func (p *Parser) phrase(s string) (string, error) {
	s = strings.TrimSpace(s)
	var words []string
	var prevEncoded bool
	for i := 0; i < len(s); {
		c := s[i]
		if isWSP(c) {
			i++
			continue
		}
		if c == '"' {
			w, n, err := unquote(s[i:], p.opts.Validate)
			if err != nil {
				return "", err
			}
			words = append(words, w)
			prevEncoded = false
			i += n
			continue
		}

		j := i
		for j < len(s) && !isWSP(s[j]) && s[j] != '"' {
			j++
		}
		atom := s[i:j]
		i = j
		if p.opts.Validate {
			for _, r := range atom {
				if !isAtext(r) && r != '.' {
					return "", fmt.Errorf("invalid character %q in phrase", r)
				}
			}
		}
		// Whitespace between adjacent encoded-words is not part of the text, RFC 2047 section 6.2.
		w, encoded := decodeWord(atom)
		if encoded && prevEncoded {
			words[len(words)-1] += w
		} else {
			words = append(words, w)
		}
		prevEncoded = encoded
	}
	return strings.Join(words, " "), nil
}

// unquote parses the quoted string at the start of s, returning its unescaped
// contents and the number of bytes consumed, including both double quotes. In
// strict mode, control characters are not allowed.
func unquote(s string, strict bool) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			return b.String(), i + 1, nil
		case c == '\\':
			i++
			if i == len(s) {
				return "", 0, errUnterminatedQuote
			}
			c = s[i]
		case strict && (c < ' ' && c != '\t' || c == 0x7f):
			return "", 0, fmt.Errorf("invalid character %q in quoted string", c)
		}
		b.WriteByte(c)
	}
	return "", 0, errUnterminatedQuote
}

// stripComments removes parenthesized comments outside quoted strings,
// replacing them with a space. The comment texts are returned.
func stripComments(s string) (string, []string, error) {
	if strings.IndexByte(s, '(') < 0 {
		if err := checkQuotes(s); err != nil {
			return "", nil, err
		}
		return s, nil, nil
	}

	var b strings.Builder
	var comments []string
	var inQuote bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			b.WriteByte(c)
			i++
			c = s[i]
		case c == '"':
			inQuote = !inQuote
		case c == '(' && !inQuote:
			var cb strings.Builder
			depth := 1
			for i++; i < len(s) && depth > 0; i++ {
				c := s[i]
				switch c {
				case '\\':
					if i+1 < len(s) {
						i++
						c = s[i]
					}
				case '(':
					depth++
				case ')':
					depth--
				}
				if depth > 0 {
					cb.WriteByte(c)
				}
			}
			if depth > 0 {
				return "", nil, errUnterminatedComment
			}
			i--
			comments = append(comments, strings.TrimSpace(cb.String()))
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	if inQuote {
		return "", nil, errUnterminatedQuote
	}
	return b.String(), comments, nil
}

// checkQuotes returns an error if s has an unterminated quoted string.
func checkQuotes(s string) error {
	var inQuote bool
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			inQuote = !inQuote
		}
	}
	if inQuote {
		return errUnterminatedQuote
	}
	return nil
}

// indexUnquoted returns the first offset of c outside quoted strings, or -1.
func indexUnquoted(s string, c byte) int {
	var inQuote bool
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == c:
			return i
		}
	}
	return -1
}

// lastIndexUnquoted returns the last offset of c outside quoted strings, or -1.
func lastIndexUnquoted(s string, c byte) int {
	r := -1
	var inQuote bool
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == c:
			r = i
		}
	}
	return r
}

func isWSP(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// parseHost checks a host for validate mode and returns its canonical form.
func parseHost(s string) (string, error) {
	if strings.HasPrefix(s, "[") {
		// ../rfc/5322:1000
		if len(s) < 2 || !strings.HasSuffix(s, "]") {
			return "", fmt.Errorf("unterminated domain literal %q", s)
		}
		for _, c := range s[1 : len(s)-1] {
			if c < 33 || c > 126 || c == '[' || c == ']' || c == '\\' {
				return "", fmt.Errorf("invalid character %q in domain literal", c)
			}
		}
		return s, nil
	}
	d, err := dns.ParseDomain(s)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", s, err)
	}
	return d.ASCII, nil
}
