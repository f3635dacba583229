package addrapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mjl-/sherpa"

	"github.com/mjl-/addrlist/address"
)

var ctxbg = context.Background()

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

// tneedErrorCode calls fn and checks it panics with a sherpa error with code.
func tneedErrorCode(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		x := recover()
		if x == nil {
			t.Fatalf("expected sherpa user error, saw success")
		}
		if err, ok := x.(*sherpa.Error); !ok {
			panic(x)
		} else if err.Code != code {
			t.Fatalf("expected sherpa error code %q, got %q", code, err.Code)
		}
	}()
	fn()
}

func TestAPI(t *testing.T) {
	api := API{address.NewParser(nil, address.Options{DefaultHost: "example.org", NestGroups: true, ReturnError: true}), []string{"me@example.org"}}

	tcompare(t, api.Split(ctxbg, "a@x.com, b@y.com", ""), []string{"a@x.com", " b@y.com"})

	records := api.Parse(ctxbg, `"Doe, John" <john@example.com>, me, team: a@x.com;`)
	tcompare(t, records, []address.Record{
		{Mailbox: "john", Host: "example.com", Personal: "Doe, John"},
		{Mailbox: "me", Host: "example.org"},
		{Groupname: "team", Addresses: []address.Record{{Mailbox: "a", Host: "x.com"}}},
	})
	tcompare(t, api.Format(ctxbg, records), `"Doe, John" <john@example.com>, team:a@x.com;`)

	tneedErrorCode(t, "user:error", func() { api.Parse(ctxbg, "<bad") })

	tcompare(t, api.Bare(ctxbg, "A <a@x.com>, b"), []string{"a@x.com", "b@example.org"})
	tcompare(t, api.Bare(ctxbg, ""), []string{})

	tcompare(t, api.Encode(ctxbg, "Doe, John", "personal"), `"Doe, John"`)
	tcompare(t, api.Encode(ctxbg, "a.b", "address"), "a.b")
	tneedErrorCode(t, "user:error", func() { api.Encode(ctxbg, "x", "other") })

	tcompare(t, api.WriteAddress(ctxbg, "john", "example.com", "John Doe"), "John Doe <john@example.com>")
	tcompare(t, api.WriteGroupAddress(ctxbg, "team", []string{"a@x.com"}), "team:a@x.com;")
}

// Each exported method must be documented, and each documented function must exist.
func TestAPIDocs(t *testing.T) {
	typ := reflect.TypeOf(API{})
	var methods []string
	for i := 0; i < typ.NumMethod(); i++ {
		methods = append(methods, typ.Method(i).Name)
	}
	var documented []string
	for _, fn := range apiDoc.Functions {
		documented = append(documented, fn.Name)
		m, ok := typ.MethodByName(fn.Name)
		if !ok {
			t.Fatalf("documented function %q does not exist", fn.Name)
		}
		// Receiver and context are not parameters.
		if m.Type.NumIn()-2 != len(fn.Params) {
			t.Fatalf("function %q: %d parameters documented, has %d", fn.Name, len(fn.Params), m.Type.NumIn()-2)
		}
	}
	if len(methods) != len(documented) {
		t.Fatalf("methods %v, documented %v", methods, documented)
	}
}

func TestHandler(t *testing.T) {
	h, err := NewHandler(address.Options{ReturnError: true}, nil)
	tcheck(t, err, "new handler")

	call := func(fn, params string) (result json.RawMessage, serr *sherpa.Error) {
		t.Helper()
		req := httptest.NewRequest("POST", "/api/"+fn, strings.NewReader(`{"params":`+params+`}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var resp struct {
			Result json.RawMessage `json:"result"`
			Error  *sherpa.Error   `json:"error"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		tcheck(t, err, "parsing response")
		return resp.Result, resp.Error
	}

	result, serr := call("Split", `["a@x.com, \"b, c\"@y.com", ""]`)
	if serr != nil {
		t.Fatalf("split: %v", serr)
	}
	var l []string
	err = json.Unmarshal(result, &l)
	tcheck(t, err, "parsing split result")
	tcompare(t, l, []string{"a@x.com", ` "b, c"@y.com`})

	result, serr = call("WriteAddress", `["john", "example.com", "Doe, John"]`)
	if serr != nil {
		t.Fatalf("write address: %v", serr)
	}
	var s string
	err = json.Unmarshal(result, &s)
	tcheck(t, err, "parsing write address result")
	tcompare(t, s, `"Doe, John" <john@example.com>`)

	_, serr = call("Parse", `["<bad"]`)
	if serr == nil || serr.Code != "user:error" {
		t.Fatalf("got error %v, expected user error", serr)
	}
}
