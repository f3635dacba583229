package address

import (
	"strings"
)

// AddressString returns a for use in a message header. An empty string is
// returned if a has no mailbox and host, if its mailbox is
// "undisclosed-recipients", or if "mailbox@host" matches an entry of filter,
// compared case-insensitively.
func AddressString(a Address, filter []string) string {
	if a.IsZero() || a.Mailbox == undisclosedRecipients {
		return ""
	}
	if len(filter) > 0 {
		bare := a.Mailbox + "@" + a.Host
		for _, f := range filter {
			if strings.EqualFold(bare, f) {
				return ""
			}
		}
	}
	return WriteAddress(a.Mailbox, a.Host, DecodeWords(a.Personal))
}

// GroupString returns g for use in a message header. Members are formatted
// with AddressString, members that result in an empty string are left out.
func GroupString(g Group, filter []string) string {
	var members []string
	for _, a := range g.Members {
		if s := AddressString(a, filter); s != "" {
			members = append(members, s)
		}
	}
	return WriteGroupAddress(g.Name, members)
}

// ListString returns items as an address list for use in a message header,
// with items separated by ", ".
//
// Addresses are filtered as with AddressString. Duplicate addresses, compared
// by lower-case "mailbox@host", are written once, at the position of the first
// occurrence but with the value of the last occurrence. Groups are compared by
// their lower-case formatted string.
func ListString(items []Item, filter []string) string {
	var keys []string
	values := map[string]string{}
	for _, it := range items {
		var key, s string
		switch x := it.(type) {
		case Address:
			s = AddressString(x, filter)
			key = strings.ToLower(x.Mailbox + "@" + x.Host)
		case Group:
			s = GroupString(x, filter)
			key = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}
		values[key] = s
	}

	l := make([]string, len(keys))
	for i, k := range keys {
		l[i] = values[k]
	}
	return strings.Join(l, ", ")
}

// BareAddresses returns the bare "mailbox@host" of each address in address list
// s, including group members, in order. Addresses without host are returned
// with defaultHost, or as only the mailbox if defaultHost is empty. Malformed
// items are skipped.
func BareAddresses(s, defaultHost string) []string {
	items, err := NewParser(nil, Options{DefaultHost: defaultHost}).Parse(s)
	if err != nil {
		return nil
	}
	var l []string
	for _, it := range items {
		if a, ok := it.(Address); ok && a.Mailbox != "" {
			l = append(l, a.Bare())
		}
	}
	return l
}

// BareAddress returns the bare address of the last address in address list s,
// see BareAddresses. An empty string is returned if s has no addresses.
func BareAddress(s, defaultHost string) string {
	l := BareAddresses(s, defaultHost)
	if len(l) == 0 {
		return ""
	}
	return l[len(l)-1]
}

// Info holds display data for an address or group.
type Info struct {
	Address  string // Full formatted address, with personal name.
	Display  string // Personal name and bare address, unquoted, for display to humans.
	Host     string
	Inner    string // Formatted address without personal name.
	Personal string // Decoded personal name.

	// For groups.
	Groupname string
	Members   []Info
}

// Infos returns display data for items.
func Infos(items []Item) []Info {
	var l []Info
	for _, it := range items {
		switch x := it.(type) {
		case Address:
			l = append(l, addressInfo(x))
		case Group:
			gi := Info{
				Address:   x.String(),
				Display:   x.Name,
				Groupname: x.Name,
			}
			for _, a := range x.Members {
				gi.Members = append(gi.Members, addressInfo(a))
			}
			l = append(l, gi)
		}
	}
	return l
}

func addressInfo(a Address) Info {
	personal := DecodeWords(a.Personal)
	inner := WriteAddress(a.Mailbox, a.Host, "")
	display := inner
	if personal != "" {
		display = personal + " <" + inner + ">"
	}
	return Info{
		Address:  WriteAddress(a.Mailbox, a.Host, personal),
		Display:  display,
		Host:     a.Host,
		Inner:    inner,
		Personal: personal,
	}
}

// Record is an address or group in a form for JSON encoding.
type Record struct {
	Mailbox   string   `json:"mailbox,omitempty"`
	Host      string   `json:"host,omitempty"`
	Personal  string   `json:"personal,omitempty"`
	Comment   []string `json:"comment,omitempty"`
	Groupname string   `json:"groupname,omitempty"`
	Addresses []Record `json:"addresses,omitempty"`
}

// Records returns items as records. Groups have Groupname and Addresses set,
// addresses the other fields.
func Records(items []Item) []Record {
	l := []Record{}
	for _, it := range items {
		switch x := it.(type) {
		case Address:
			l = append(l, addressRecord(x))
		case Group:
			r := Record{Groupname: x.Name, Addresses: []Record{}}
			for _, a := range x.Members {
				r.Addresses = append(r.Addresses, addressRecord(a))
			}
			l = append(l, r)
		}
	}
	return l
}

func addressRecord(a Address) Record {
	return Record{a.Mailbox, a.Host, a.Personal, a.Comments, "", nil}
}

// Items is the inverse of Records.
func Items(records []Record) []Item {
	var l []Item
	for _, r := range records {
		if r.Groupname != "" {
			g := Group{Name: r.Groupname}
			for _, m := range r.Addresses {
				g.Members = append(g.Members, Address{m.Mailbox, m.Host, m.Personal, m.Comment})
			}
			l = append(l, g)
			continue
		}
		l = append(l, Address{r.Mailbox, r.Host, r.Personal, r.Comment})
	}
	return l
}
