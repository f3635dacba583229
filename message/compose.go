// Package message composes message headers with address lists.
package message

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/mjl-/addrlist/address"
)

var (
	ErrMessageSize = errors.New("message too large")
	ErrCompose     = errors.New("compose")

	// ErrEncodingViolation is returned for addresses with 8-bit data, when only
	// 7-bit data is allowed, i.e. without SMTPUTF8.
	ErrEncodingViolation = errors.New("invalid character in email address")
)

// Composer helps compose message headers. Operations that fail call panic,
// which should be caught with recover(), checking for ErrCompose and optionally
// ErrMessageSize or ErrEncodingViolation. Writes are buffered.
type Composer struct {
	Has8bit  bool  // Whether message contains 8bit data.
	SMTPUTF8 bool  // Whether message will be sent with SMTPUTF8 extension, allowing UTF-8 in headers.
	Size     int64 // Total bytes written.

	bw      *bufio.Writer
	maxSize int64 // If greater than zero, writes beyond maximum size raise ErrMessageSize.
}

// NewComposer initializes a new composer with a buffered writer around w, and
// with a maximum message size if maxSize is greater than zero.
// Operations on a Composer do not return an error. Caller must use recover() to
// catch ErrCompose errors.
func NewComposer(w io.Writer, maxSize int64, smtputf8 bool) *Composer {
	return &Composer{bw: bufio.NewWriter(w), maxSize: maxSize, SMTPUTF8: smtputf8}
}

// Write implements io.Writer, but calls panic (that is handled higher up) on
// i/o errors.
func (c *Composer) Write(buf []byte) (int, error) {
	if c.maxSize > 0 && c.Size+int64(len(buf)) > c.maxSize {
		c.Checkf(ErrMessageSize, "writing message")
	}
	n, err := c.bw.Write(buf)
	if n > 0 {
		c.Size += int64(n)
	}
	c.Checkf(err, "write")
	return n, nil
}

// Checkf checks err, panicing with sentinel error value.
func (c *Composer) Checkf(err error, format string, args ...any) {
	if err != nil {
		// The original error is kept, for ErrMessageSize and ErrEncodingViolation.
		panic(fmt.Errorf("%w: %w: %v", ErrCompose, err, fmt.Sprintf(format, args...)))
	}
}

// Flush writes any buffered output.
func (c *Composer) Flush() {
	err := c.bw.Flush()
	c.Checkf(err, "flush")
}

// HeaderAddrs writes a message header with an address list, folding lines
// longer than 78 characters. Addresses that format as empty, e.g. for
// undisclosed recipients, are skipped. No header is written if no addresses
// remain.
//
// Non-ASCII display names and group names are written as RFC 2047
// encoded-words unless SMTPUTF8 is set. Non-ASCII in mailbox or host without
// SMTPUTF8 results in an ErrEncodingViolation panic.
func (c *Composer) HeaderAddrs(k string, items []address.Item) {
	var texts []string
	for _, it := range items {
		var s string
		switch x := it.(type) {
		case address.Address:
			s = c.xaddress(x)
		case address.Group:
			var members []string
			for _, a := range x.Members {
				if ms := c.xaddress(a); ms != "" {
					members = append(members, ms)
				}
			}
			s = c.word(x.Name, address.KindAddress) + ":" + strings.Join(members, ", ") + ";"
		}
		if s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return
	}

	// Commas stay on the line of the preceding address.
	for i := range texts[:len(texts)-1] {
		texts[i] += ","
	}
	w := &HeaderWriter{}
	w.Add("", k+":")
	w.Add(" ", texts...)
	_, _ = io.WriteString(c, w.String())
}

// xaddress formats an address for a header, empty for addresses that should
// not be written.
func (c *Composer) xaddress(a address.Address) string {
	if address.AddressString(a, nil) == "" {
		return ""
	}
	if !isASCII(a.Mailbox) || !isASCII(a.Host) {
		if !c.SMTPUTF8 {
			c.Checkf(ErrEncodingViolation, "address %q", a.Bare())
		}
		c.Has8bit = true
	}
	inner := address.WriteAddress(a.Mailbox, a.Host, "")
	personal := strings.TrimSpace(address.DecodeWords(a.Personal))
	if personal == "" {
		return inner
	}
	return c.word(personal, address.KindPersonal) + " <" + inner + ">"
}

// word returns s quoted as needed, or as RFC 2047 encoded-words if s has
// non-ASCII characters and SMTPUTF8 is not set.
func (c *Composer) word(s string, kind address.Kind) string {
	if isASCII(s) {
		return address.Encode(s, kind)
	}
	if c.SMTPUTF8 {
		c.Has8bit = true
		return address.Encode(s, kind)
	}
	ew := mime.QEncoding.Encode("utf-8", s)
	// Q-encoding leaves specials as is, which would have to be quoted, making
	// the encoded-word text instead. ../rfc/2047:524
	if strings.ContainsAny(ew, `"(),.:;<>@[\]`) {
		ew = mime.BEncoding.Encode("utf-8", s)
	}
	return ew
}

func isASCII(s string) bool {
	for _, c := range s {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
