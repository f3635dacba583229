// Package address parses, normalizes and formats RFC 822/2822/5322 address
// lists, as found in From, To, Cc and Bcc message headers.
//
// Parsing is done in two steps. Split breaks a header value into top-level
// items, keeping quoted strings and groups intact. A Parser turns each item
// into an Address or a Group. The formatting functions turn parsed items back
// into a canonical, quoted and escaped form for use in message headers.
package address

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned for items that cannot be parsed as a mailbox or
// group. Errors returned by a Parser are a *ParseError, which matches
// ErrMalformed with errors.Is.
var ErrMalformed = errors.New("malformed address")

// ParseError holds the item that could not be parsed and the reason.
type ParseError struct {
	Item string // Text of the item, as split from the address list.
	Err  error  // Details.
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformed, e.Item, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// Mailbox name that RFC 822 messages use in an "undisclosed-recipients:;"
// group. Addresses with this mailbox are not written.
const undisclosedRecipients = "undisclosed-recipients"

// Item is an element of an address list: an Address or a Group.
type Item interface {
	item()
	String() string
}

// Address is a single mailbox.
type Address struct {
	Mailbox  string   // Localpart, without quotes and escaping backslashes.
	Host     string   // Domain. Can be empty.
	Personal string   // Display name, decoded and unescaped.
	Comments []string // Contents of parenthesized comments, if any.
}

func (Address) item() {}

// IsZero returns whether a has neither mailbox nor host, i.e. it denotes no
// address at all.
func (a Address) IsZero() bool {
	return a.Mailbox == "" && a.Host == ""
}

// Bare returns the mailbox and host without display name, as "mailbox@host",
// or only the mailbox if host is empty. No quoting is applied.
func (a Address) Bare() string {
	if a.Host == "" {
		return a.Mailbox
	}
	return a.Mailbox + "@" + a.Host
}

// String returns the address in canonical header form, see AddressString.
func (a Address) String() string {
	return AddressString(a, nil)
}

// Group is a named list of addresses, e.g. "friends: a@example.org, b@example.org;".
// Groups cannot contain groups.
type Group struct {
	Name    string
	Members []Address
}

func (Group) item() {}

// String returns the group in canonical header form, see GroupString.
func (g Group) String() string {
	return GroupString(g, nil)
}
