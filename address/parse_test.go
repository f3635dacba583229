package address

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	nested := NewParser(nil, Options{NestGroups: true})

	test := func(p *Parser, s string, exp ...Item) {
		t.Helper()
		items, err := p.Parse(s)
		tcheck(t, err, "parse")
		tcompare(t, items, []Item(exp))
	}

	test(nested, `"John Doe" <john@example.com>`, Address{"john", "example.com", "John Doe", nil})
	test(nested, `John  Doe <john@example.com>`, Address{"john", "example.com", "John Doe", nil})
	test(nested, `john@example.com`, Address{"john", "example.com", "", nil})
	test(nested, `<john@example.com>`, Address{"john", "example.com", "", nil})
	test(nested, `"Doe, John" <john@example.com>, jane@example.org`,
		Address{"john", "example.com", "Doe, John", nil},
		Address{"jane", "example.org", "", nil},
	)
	test(nested, `"a \"q\"" <a@x.com>`, Address{"a", "x.com", `a "q"`, nil})
	test(nested, `john@example.com (Johnny (the man))`, Address{"john", "example.com", "", []string{"Johnny (the man)"}})
	test(nested, `"a b"@x.com`, Address{"a b", "x.com", "", nil})
	test(nested, `"a@b"@x.com`, Address{"a@b", "x.com", "", nil})
	test(nested, "", []Item(nil)...)
	test(nested, " , ,", []Item(nil)...)

	// RFC 2047 encoded-words in display names.
	test(nested, `=?iso-8859-2?Q?Krist=FDna?= <k@example.com>`, Address{"k", "example.com", "Kristýna", nil})
	test(nested, `=?utf-8?q?J=C3=B6rg?= =?utf-8?q?_M?= <j@x.com>`, Address{"j", "x.com", "Jörg M", nil})
	test(nested, `=?utf-8?q?J=C3=B6rg?= Doe <j@x.com>`, Address{"j", "x.com", "Jörg Doe", nil})

	// Groups.
	test(nested, `friends: a@x.com, "B" <b@y.com>;, c@z.com`,
		Group{"friends", []Address{{"a", "x.com", "", nil}, {"b", "y.com", "B", nil}}},
		Address{"c", "z.com", "", nil},
	)
	test(nested, `empty:;`, Group{"empty", nil})
	test(nested, `"my friends": a@x.com;`, Group{"my friends", []Address{{"a", "x.com", "", nil}}})
	test(nested, `g: a@x.com`, Group{"g", []Address{{"a", "x.com", "", nil}}})
	// Nested group member is skipped.
	test(nested, `g: a@x.com, h: b@y.com;`, Group{"g", []Address{{"a", "x.com", "", nil}}})

	flat := NewParser(nil, Options{})
	test(flat, `friends: a@x.com, b@y.com;, c@z.com`,
		Address{"a", "x.com", "", nil},
		Address{"b", "y.com", "", nil},
		Address{"c", "z.com", "", nil},
	)

	// Undisclosed recipients.
	test(nested, "undisclosed-recipients:;")
	test(nested, " Undisclosed-Recipients: ; ")
	test(flat, "undisclosed-recipients:;, a@x.com")

	// Default host.
	test(NewParser(nil, Options{DefaultHost: "example.org"}), "john, jane@x.com",
		Address{"john", "example.org", "", nil},
		Address{"jane", "x.com", "", nil},
	)
	test(flat, "john", Address{"john", "", "", nil})
}

func TestParseMalformed(t *testing.T) {
	lenient := NewParser(nil, Options{NestGroups: true})
	strict := NewParser(nil, Options{NestGroups: true, ReturnError: true})

	test := func(s string, item string, exp ...Item) {
		t.Helper()

		items, err := lenient.Parse(s)
		tcheck(t, err, "lenient parse")
		tcompare(t, items, []Item(exp))

		_, err = strict.Parse(s)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("parse %q: got err %v, expected ErrMalformed", s, err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("parse %q: got err %v, expected *ParseError", s, err)
		}
		tcompare(t, perr.Item, item)
	}

	good := Address{"b", "y.com", "", nil}
	test("<bad, b@y.com", "<bad", good)
	test("A <a@x.com> trailing, b@y.com", "A <a@x.com> trailing", good)
	test("a b@x.com, b@y.com", "a b@x.com", good)
	test("a@, b@y.com", "a@", good)
	test("@x.com, b@y.com", "@x.com", good)
	test("a@x.com (open, b@y.com", "a@x.com (open", good)
	test(`"open@x.com`, `"open@x.com`)
	test(": a@x.com;, b@y.com", ": a@x.com;", good)
	test("<>, b@y.com", "<>", good)
	test(`" "@x.com, b@y.com`, `" "@x.com`, good)
	test(`A <""@x.com>, b@y.com`, `A <""@x.com>`, good)
	test("g: a@x.com, <bad;", "<bad", Group{"g", []Address{{"a", "x.com", "", nil}}})
}

func TestParseValidate(t *testing.T) {
	p := NewParser(nil, Options{Validate: true, ReturnError: true, NestGroups: true})

	good := func(s string, exp ...Item) {
		t.Helper()
		items, err := p.Parse(s)
		tcheck(t, err, "parse")
		tcompare(t, items, []Item(exp))
	}
	bad := func(s string) {
		t.Helper()
		_, err := p.Parse(s)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("parse %q: got err %v, expected ErrMalformed", s, err)
		}
	}

	good("John <john@Example.COM>", Address{"john", "example.com", "John", nil})
	good("user@Bücher.example", Address{"user", "xn--bcher-kva.example", "", nil})
	good(`"a b"@x.com`, Address{"a b", "x.com", "", nil})
	good("a.b+c@x.com", Address{"a.b+c", "x.com", "", nil})
	good("a@[127.0.0.1]", Address{"a", "[127.0.0.1]", "", nil})
	good("g: a@x.com;", Group{"g", []Address{{"a", "x.com", "", nil}}})
	good("rené@x.com", Address{"rené", "x.com", "", nil})
	good("J. Doe <j@x.com>", Address{"j", "x.com", "J. Doe", nil})
	good(strings.Repeat("a", 64)+"@x.com", Address{strings.Repeat("a", 64), "x.com", "", nil})

	bad("a..b@x.com")
	bad(".a@x.com")
	bad("a.@x.com")
	bad("a@x..com")
	bad("a@[1.2.3.4")
	bad("john")
	bad("g: a@x.com")
	bad("J[1] <j@x.com>, a@x.com")
	bad(`"unterminated@x.com`)
	bad(`" "@x.com`)
	bad("a@x.com (comment")
	bad(strings.Repeat("a", 65) + "@x.com")

	// Without "@host", the default host is used.
	dp := NewParser(nil, Options{Validate: true, DefaultHost: "example.org"})
	items, err := dp.Parse("john")
	tcheck(t, err, "parse with default host")
	tcompare(t, items, []Item{Address{"john", "example.org", "", nil}})
}

func TestParseList(t *testing.T) {
	items, err := ParseList("a@x.com", Options{})
	tcheck(t, err, "parse")
	tcompare(t, items, []Item{Address{"a", "x.com", "", nil}})

	p := NewParser(nil, Options{DefaultHost: "x"})
	tcompare(t, p.Options(), Options{DefaultHost: "x"})
}
