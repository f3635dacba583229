package message

import (
	"fmt"
	"strings"

	"github.com/mjl-/addrlist/address"
)

// Recipients is a set of envelope recipients, as bare "mailbox@host"
// addresses. Addresses are compared case-insensitively. Order of addition is
// kept.
//
// The zero value is an empty set that allows only 7-bit addresses and has no
// default host.
type Recipients struct {
	SMTPUTF8    bool   // Allow 8-bit addresses.
	DefaultHost string // For addresses without host.

	keys  []string
	addrs map[string]string // Lower-case bare address to bare address.
}

// bare parses an address list and returns its bare addresses. Group members are
// included, group names are not.
func (r *Recipients) bare(list string) ([]string, error) {
	items, err := address.ParseList(list, address.Options{DefaultHost: r.DefaultHost, ReturnError: true})
	if err != nil {
		return nil, err
	}
	var l []string
	for _, it := range items {
		a, ok := it.(address.Address)
		if !ok || a.Mailbox == "" {
			continue
		}
		s := a.Bare()
		if !r.SMTPUTF8 && !isASCII(s) {
			return nil, fmt.Errorf("%w: %q", ErrEncodingViolation, s)
		}
		l = append(l, s)
	}
	return l, nil
}

// Add adds the addresses of an address list. Either all addresses are added,
// or none when an error is returned.
func (r *Recipients) Add(list string) error {
	l, err := r.bare(list)
	if err != nil {
		return err
	}
	if r.addrs == nil {
		r.addrs = map[string]string{}
	}
	for _, s := range l {
		k := strings.ToLower(s)
		if _, ok := r.addrs[k]; !ok {
			r.keys = append(r.keys, k)
		}
		r.addrs[k] = s
	}
	return nil
}

// Remove removes the addresses of an address list. Addresses not in the set are
// ignored.
func (r *Recipients) Remove(list string) error {
	l, err := r.bare(list)
	if err != nil {
		return err
	}
	for _, s := range l {
		k := strings.ToLower(s)
		if _, ok := r.addrs[k]; !ok {
			continue
		}
		delete(r.addrs, k)
		for i, key := range r.keys {
			if key == k {
				r.keys = append(r.keys[:i], r.keys[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Clear removes all addresses.
func (r *Recipients) Clear() {
	r.keys = nil
	r.addrs = nil
}

// Len returns the number of addresses.
func (r *Recipients) Len() int {
	return len(r.keys)
}

// List returns the bare addresses, in order of addition.
func (r *Recipients) List() []string {
	l := make([]string, len(r.keys))
	for i, k := range r.keys {
		l[i] = r.addrs[k]
	}
	return l
}
