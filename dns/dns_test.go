package dns

import (
	"errors"
	"testing"
)

func TestParseDomain(t *testing.T) {
	test := func(s string, exp Domain, expErr error) {
		t.Helper()
		dom, err := ParseDomain(s)
		if (err == nil) != (expErr == nil) || expErr != nil && !errors.Is(err, expErr) {
			t.Fatalf("parse domain %q: err %v, expected %v", s, err, expErr)
		}
		if expErr == nil && dom != exp {
			t.Fatalf("parse domain %q: got %#v, expected %#v", s, dom, exp)
		}
	}

	// Callers rely on normalization of names.
	test("example.com", Domain{"example.com", ""}, nil)
	test("EXAMPLE.COM", Domain{"example.com", ""}, nil)
	test("TEST☺.EXAMPLE.COM", Domain{"xn--test-3o3b.example.com", "test☺.example.com"}, nil)
	test("ℂᵤⓇℒ。𝐒🄴", Domain{"curl.se", ""}, nil) // https://daniel.haxx.se/blog/2022/12/14/idn-is-crazy/
	test("example.com.", Domain{}, errTrailingDot)
	test("", Domain{}, errEmpty)
	test("a..example", Domain{}, errLabel)
}

func TestDomainName(t *testing.T) {
	d := Domain{"xn--test-3o3b.example.com", "test☺.example.com"}
	if d.Name() != "test☺.example.com" || d.XName(false) != "xn--test-3o3b.example.com" {
		t.Fatalf("bad names for %v", d)
	}
	if d.String() != "test☺.example.com/xn--test-3o3b.example.com" {
		t.Fatalf("bad string %q", d.String())
	}
	if !(Domain{}).IsZero() || d.IsZero() {
		t.Fatalf("bad IsZero")
	}
}
