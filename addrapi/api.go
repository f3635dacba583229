// Package addrapi exports the address list operations as a JSON API over HTTP,
// using the sherpa protocol.
package addrapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mjl-/sherpa"
	"github.com/mjl-/sherpadoc"
	"github.com/mjl-/sherpaprom"

	"github.com/mjl-/addrlist/address"
	"github.com/mjl-/addrlist/buildvar"
	"github.com/mjl-/addrlist/mlog"
)

var pkglog = mlog.New("addrapi", nil)

//go:embed api.json
var apiJSON []byte

var apiDoc = mustParseAPI("addrlist", apiJSON)

var collector *sherpaprom.Collector

func mustParseAPI(api string, buf []byte) (doc sherpadoc.Section) {
	err := json.Unmarshal(buf, &doc)
	if err != nil {
		pkglog.Fatalx("parsing api docs", err, slog.String("api", api))
	}
	return doc
}

func init() {
	var err error
	collector, err = sherpaprom.NewCollector("addrlist", nil)
	if err != nil {
		pkglog.Fatalx("creating sherpa prometheus collector", err)
	}
}

// NewHandler returns a handler for the API at path "/api/". Parse and Format
// use opts and filter.
func NewHandler(opts address.Options, filter []string) (http.Handler, error) {
	api := API{address.NewParser(nil, opts), filter}
	h, err := sherpa.NewHandler("/api/", buildvar.Version, api, &apiDoc, &sherpa.HandlerOpts{Collector: collector, AdjustFunctionNames: "none"})
	if err != nil {
		return nil, fmt.Errorf("sherpa handler: %v", err)
	}
	return h, nil
}

func xcheckuserf(ctx context.Context, err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	errmsg := fmt.Sprintf("%s: %s", msg, err)
	pkglog.Debugx(msg, err)
	panic(&sherpa.Error{Code: "user:error", Message: errmsg})
}

// API exports functions for parsing and formatting address lists. All its
// methods are exported under /api/.
type API struct {
	parser *address.Parser
	filter []string
}

// Split splits an address list into its top-level items, on any of the
// characters in delimiters, or on comma if delimiters is empty. Quoted strings
// and groups are kept intact. Items are not trimmed.
func (API) Split(ctx context.Context, list, delimiters string) []string {
	return address.Split(list, delimiters)
}

// Parse parses an address list into addresses and groups.
func (a API) Parse(ctx context.Context, list string) []address.Record {
	items, err := a.parser.Parse(list)
	xcheckuserf(ctx, err, "parsing address list")
	return address.Records(items)
}

// Format returns records as an address list for use in a message header,
// leaving out filtered and duplicate addresses.
func (a API) Format(ctx context.Context, records []address.Record) string {
	return address.ListString(address.Items(records), a.filter)
}

// Bare returns the bare addresses (localpart@host) in an address list,
// including group members.
func (a API) Bare(ctx context.Context, list string) []string {
	l := address.BareAddresses(list, a.parser.Options().DefaultHost)
	if l == nil {
		l = []string{}
	}
	return l
}

// Encode quotes and escapes text for use as word in an address header. Kind is
// "address" for localparts and group names, or "personal" for display names.
func (API) Encode(ctx context.Context, text, kind string) string {
	var k address.Kind
	switch kind {
	case "address":
		k = address.KindAddress
	case "personal":
		k = address.KindPersonal
	default:
		xcheckuserf(ctx, fmt.Errorf("unknown kind %q", kind), "encode")
	}
	return address.Encode(text, k)
}

// WriteAddress returns an address formatted for use in a message header.
func (API) WriteAddress(ctx context.Context, mailbox, host, personal string) string {
	return address.WriteAddress(mailbox, host, personal)
}

// WriteGroupAddress returns a group formatted for use in a message header.
// Members must already be formatted.
func (API) WriteGroupAddress(ctx context.Context, name string, members []string) string {
	return address.WriteGroupAddress(name, members)
}
