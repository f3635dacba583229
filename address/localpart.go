package address

import (
	"errors"
	"fmt"
	"strings"
)

var errBadLocalpart = errors.New("invalid localpart")

// parseLocalpart parses a localpart as dot-atom or quoted-string, returning it
// without quotes and escapes. UTF-8 is allowed.
func parseLocalpart(s string) (localpart string, rerr error) {
	p := &parser{s, 0}

	defer func() {
		x := recover()
		if x == nil {
			return
		}
		e, ok := x.(error)
		if !ok {
			panic(x)
		}
		rerr = fmt.Errorf("%w: %s", errBadLocalpart, e)
	}()

	lp := p.xlocalpart()
	if !p.empty() {
		p.xerrorf("remaining after localpart: %q", p.remainder())
	}
	return lp, nil
}

type parser struct {
	s string
	o int
}

func (p *parser) xerrorf(format string, args ...any) {
	panic(fmt.Errorf(format, args...))
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.s[p.o:], s)
}

func (p *parser) take(s string) bool {
	if p.hasPrefix(s) {
		p.o += len(s)
		return true
	}
	return false
}

func (p *parser) xtake(s string) {
	if !p.take(s) {
		p.xerrorf("expected %q", s)
	}
}

func (p *parser) empty() bool {
	return p.o == len(p.s)
}

func (p *parser) xtaken(n int) string {
	r := p.s[p.o : p.o+n]
	p.o += n
	return r
}

func (p *parser) remainder() string {
	r := p.s[p.o:]
	p.o = len(p.s)
	return r
}

func (p *parser) xlocalpart() string {
	// ../rfc/5322:1140
	var s string
	if p.hasPrefix(`"`) {
		s = p.xquotedString()
	} else {
		s = p.xatom()
		for p.take(".") {
			s += "." + p.xatom()
		}
	}
	if len(s) > 64 {
		// ../rfc/5321:3486
		p.xerrorf("localpart longer than 64 octets")
	}
	return s
}

func (p *parser) xquotedString() string {
	p.xtake(`"`)
	var b strings.Builder
	var esc bool
	for {
		c := p.xchar()
		if esc {
			if c >= ' ' && c < 0x7f || c == '\t' {
				b.WriteRune(c)
				esc = false
				continue
			}
			p.xerrorf("bad escaped char %q", c)
		}
		switch {
		case c == '\\':
			esc = true
		case c == '"':
			return b.String()
		case c >= ' ' && c < 0x7f || c > 0x7f:
			b.WriteRune(c)
		default:
			p.xerrorf("invalid character %q in quoted string", c)
		}
	}
}

func (p *parser) xchar() rune {
	// Invalid UTF-8 is tracked byte by byte.
	if p.empty() {
		p.xerrorf("need another character")
	}
	var r rune
	var o int
	for i, c := range p.s[p.o:] {
		if i > 0 {
			o = i
			break
		}
		r = c
	}
	if o == 0 {
		p.o = len(p.s)
	} else {
		p.o += o
	}
	return r
}

func (p *parser) takefn1(what string, fn func(c rune, i int) bool) string {
	if p.empty() {
		p.xerrorf("need at least one char for %s", what)
	}
	for i, c := range p.s[p.o:] {
		if !fn(c, i) {
			if i == 0 {
				p.xerrorf("expected at least one char for %s, got char %q", what, c)
			}
			return p.xtaken(i)
		}
	}
	return p.remainder()
}

func (p *parser) xatom() string {
	return p.takefn1("atom", func(c rune, i int) bool {
		return isAtext(c)
	})
}

// isAtext returns whether c is allowed in an atom, RFC 5322 section 3.2.3, with
// UTF-8 from RFC 6532.
func isAtext(c rune) bool {
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '/', '=', '?', '^', '_', '`', '{', '|', '}', '~':
		return true
	}
	return isalphadigit(c) || c > 0x7f
}

func isalpha(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isdigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isalphadigit(c rune) bool {
	return isalpha(c) || isdigit(c)
}
