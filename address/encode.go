package address

import (
	"strings"
)

// Kind indicates the kind of header text passed to Encode.
type Kind int

const (
	// KindAddress is for localparts and group names. Whitespace is not allowed
	// without quoting.
	KindAddress Kind = iota

	// KindPersonal is for display names. Whitespace is allowed, a period is not.
	KindPersonal
)

// Characters trimmed from text before encoding.
const trimset = " \t\n\r\x00\x0b"

// needsQuote returns whether c must be quoted in a header word of kind, see
// RFC 2822 3.2.5 and 3.4.
func needsQuote(c byte, kind Kind) bool {
	switch c {
	case '\t', ' ':
		return kind == KindAddress
	case '.':
		return kind == KindPersonal
	case '"', '(', ')', ',', ':', ';', '<', '>', '@', '[', '\\', ']', 0x7f:
		return true
	}
	return c < 0x20
}

// Encode quotes and escapes s for use as a word in an address header, if
// required.
//
// Leading and trailing whitespace is removed. If s is already a quoted string,
// it is unquoted and unescaped first. If s contains special characters for its
// kind, it is returned as a quoted string with backslashes and double quotes
// escaped. Otherwise s is returned unmodified.
func Encode(s string, kind Kind) string {
	s = strings.Trim(s, trimset)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = unescape(s[1 : len(s)-1])
	}
	for i := 0; i < len(s); i++ {
		if needsQuote(s[i], kind) {
			return quote(s)
		}
	}
	return s
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

// unescape removes backslashes, keeping the character each one escapes.
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			if i == len(s) {
				break
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// WriteAddress returns an address for use in a message header, as
// "personal <mailbox@host>", or "mailbox@host" if personal is empty. Personal
// and mailbox are quoted if needed. Leading "@" characters of host are
// ignored. If host is empty, only the mailbox is written.
func WriteAddress(mailbox, host, personal string) string {
	var b strings.Builder
	withPersonal := strings.Trim(personal, trimset) != ""
	if withPersonal {
		b.WriteString(Encode(personal, KindPersonal))
		b.WriteString(" <")
	}
	b.WriteString(Encode(mailbox, KindAddress))
	if host = strings.TrimLeft(host, "@"); host != "" {
		b.WriteString("@")
		b.WriteString(host)
	}
	if withPersonal {
		b.WriteString(">")
	}
	return b.String()
}

// WriteGroupAddress returns a group for use in a message header. Members must
// already be formatted addresses. A group without members is written as
// "name:;".
func WriteGroupAddress(name string, members []string) string {
	return Encode(name, KindAddress) + ":" + strings.Join(members, ", ") + ";"
}

// TrimAddress removes surrounding whitespace and angle brackets from an address
// without display name, e.g. "<user@example.org>".
func TrimAddress(s string) string {
	s = strings.Trim(s, trimset)
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		s = s[1 : len(s)-1]
	}
	return s
}
