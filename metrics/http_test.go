package metrics

import (
	"testing"
	"time"
)

func TestHTTPResult(t *testing.T) {
	for code, exp := range map[int]string{200: "ok", 303: "ok", 404: "usererror", 500: "servererror", 101: "other"} {
		if got := HTTPResult(code); got != exp {
			t.Fatalf("code %d: got %q, expected %q", code, got, exp)
		}
	}

	// Must not panic on label cardinality.
	HTTPServerObserve("api", "POST", 200, time.Now())
	PanicInc("test")
}
