package address

import (
	"encoding/json"
	"testing"
)

func TestAddressString(t *testing.T) {
	tcompare(t, AddressString(Address{}, nil), "")
	tcompare(t, AddressString(Address{Personal: "Nobody"}, nil), "")
	tcompare(t, AddressString(Address{Mailbox: "undisclosed-recipients"}, nil), "")
	tcompare(t, AddressString(Address{"john", "example.com", "John Doe", nil}, nil), "John Doe <john@example.com>")
	tcompare(t, AddressString(Address{"john", "example.com", "=?utf-8?q?J=C3=B6rg?=", nil}, nil), "Jörg <john@example.com>")
	tcompare(t, AddressString(Address{"john", "example.com", "", nil}, []string{"other@example.com", "JOHN@Example.com"}), "")
	tcompare(t, AddressString(Address{"john", "example.com", "", nil}, []string{"john@example.org"}), "john@example.com")
	tcompare(t, Address{"a b", "x.com", "A. B", nil}.String(), `"A. B" <"a b"@x.com>`)
}

func TestGroupString(t *testing.T) {
	g := Group{"team", []Address{{"a", "x.com", "", nil}, {"b", "y.com", "B", nil}}}
	tcompare(t, g.String(), "team:a@x.com, B <b@y.com>;")
	tcompare(t, GroupString(g, []string{"a@x.com"}), "team:B <b@y.com>;")
	tcompare(t, GroupString(Group{Name: "none"}, nil), "none:;")
}

func TestListString(t *testing.T) {
	items := []Item{
		Address{"a", "x.com", "A", nil},
		Address{"b", "y.com", "", nil},
		Address{},
		Address{"A", "X.com", "Z", nil},
		Group{"team", []Address{{"c", "z.com", "", nil}}},
		Group{"TEAM", []Address{{"c", "z.com", "", nil}}},
	}
	tcompare(t, ListString(items, nil), "Z <A@X.com>, b@y.com, TEAM:c@z.com;")
	tcompare(t, ListString(items, []string{"B@Y.COM", "c@z.com"}), "Z <A@X.com>, TEAM:;")
	tcompare(t, ListString(nil, nil), "")
}

func TestListStringRoundtrip(t *testing.T) {
	p := NewParser(nil, Options{NestGroups: true})

	inputs := []string{
		`"Doe, John" <john@example.com>, jane@example.org, friends:a@x.com, B <b@y.com>;`,
		`=?utf-8?q?J=C3=B6rg?= <j@x.com>, "a b"@x.com, "A. B" <ab@x.com>`,
		`john@example.com (comment), "quote \"d\"" <q@x.com>, empty:;`,
		`" "@x.com, a@x.com`,
	}
	for _, s := range inputs {
		items, err := p.Parse(s)
		tcheck(t, err, "parse")
		canonical := ListString(items, nil)

		items, err = p.Parse(canonical)
		tcheck(t, err, "parse canonical")
		tcompare(t, ListString(items, nil), canonical)
	}

	// Whitespace-only localparts are dropped, not written as "@x.com".
	items, err := p.Parse(`" "@x.com, a@x.com`)
	tcheck(t, err, "parse")
	tcompare(t, ListString(items, nil), "a@x.com")

	items, err = p.Parse(`"Doe, John" <john@example.com>, friends:a@x.com, B <b@y.com>;`)
	tcheck(t, err, "parse")
	tcompare(t, ListString(items, nil), `"Doe, John" <john@example.com>, friends:a@x.com, B <b@y.com>;`)
}

func TestBareAddress(t *testing.T) {
	s := "A <a@x.com>, B <b@y.com>"
	tcompare(t, BareAddresses(s, ""), []string{"a@x.com", "b@y.com"})

	// The last address is returned, not the first.
	tcompare(t, BareAddress(s, ""), "b@y.com")

	tcompare(t, BareAddresses("g: a@x.com, b;, c", "example.org"), []string{"a@x.com", "b@example.org", "c@example.org"})
	tcompare(t, BareAddresses("john", ""), []string{"john"})
	tcompare(t, BareAddress("", ""), "")
	tcompare(t, BareAddresses("undisclosed-recipients:;", ""), []string(nil))
	tcompare(t, BareAddress("<bad, b@y.com", ""), "b@y.com")
}

func TestInfos(t *testing.T) {
	items := []Item{
		Address{"john", "example.com", "Doe, John", nil},
		Group{"team", []Address{{"a", "x.com", "", nil}}},
	}
	exp := []Info{
		{
			Address:  `"Doe, John" <john@example.com>`,
			Display:  "Doe, John <john@example.com>",
			Host:     "example.com",
			Inner:    "john@example.com",
			Personal: "Doe, John",
		},
		{
			Address:   "team:a@x.com;",
			Display:   "team",
			Groupname: "team",
			Members: []Info{
				{Address: "a@x.com", Display: "a@x.com", Host: "x.com", Inner: "a@x.com"},
			},
		},
	}
	tcompare(t, Infos(items), exp)
}

func TestRecords(t *testing.T) {
	items := []Item{
		Address{"john", "example.com", "John", []string{"work"}},
		Group{"team", []Address{{"a", "x.com", "", nil}}},
		Group{Name: "none"},
	}
	records := Records(items)
	buf, err := json.Marshal(records)
	tcheck(t, err, "marshal")
	exp := `[{"mailbox":"john","host":"example.com","personal":"John","comment":["work"]},{"groupname":"team","addresses":[{"mailbox":"a","host":"x.com"}]},{"groupname":"none"}]`
	tcompare(t, string(buf), exp)

	var l []Record
	err = json.Unmarshal(buf, &l)
	tcheck(t, err, "unmarshal")
	tcompare(t, Items(l), []Item{items[0], items[1], Group{Name: "none"}})

	tcompare(t, Records(nil), []Record{})
}
