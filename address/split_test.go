package address

import (
	"reflect"
	"testing"
)

func tcheck(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %s", msg, err)
	}
}

func tcompare(t *testing.T, got, expect any) {
	t.Helper()
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("got:\n%#v\nexpected:\n%#v", got, expect)
	}
}

func TestSplit(t *testing.T) {
	test := func(s, delims string, exp ...string) {
		t.Helper()
		tcompare(t, Split(s, delims), exp)
	}

	test("", "", "")
	test("a@x.com", "", "a@x.com")
	test("a@x.com, b@y.com", "", "a@x.com", " b@y.com")
	test(`"a, b"@x.com, c@y.com`, ",", `"a, b"@x.com`, " c@y.com")
	test("grp: a@x.com, b@y.com;, c@z.com", "", "grp: a@x.com, b@y.com;", " c@z.com")
	test("grp:;", "", "grp:;")
	// Only the first delimiter after a group is absorbed.
	test("g:a; , b", "", "g:a;", " b")
	test("g:a;,,b", "", "g:a;", "", "b")

	// Empty items are kept, a trailing delimiter does not add an item.
	test("a,,b", "", "a", "", "b")
	test("a,", "", "a")
	test(",a", "", "", "a")

	// Escaped delimiters and quotes.
	test(`a\,b,c`, "", `a\,b`, "c")
	test(`"a\", b",c`, "", `"a\", b"`, "c")

	// Custom delimiter sets.
	test("a@x.com; b@y.com c@z.com", "; ", "a@x.com", "", "b@y.com", "c@z.com")
	test("a@x.com,b@y.com", ";", "a@x.com,b@y.com")

	// Quotes take precedence inside groups.
	test(`g: "x;y" <a@x.com>;, b@y.com`, "", `g: "x;y" <a@x.com>;`, " b@y.com")

	// Unterminated group runs to the end.
	test("g: a@x.com, b@y.com", "", "g: a@x.com, b@y.com")
}
