package address

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/ianaindex"
)

var wordDecoder = mime.WordDecoder{
	CharsetReader: func(cs string, r io.Reader) (io.Reader, error) {
		switch strings.ToLower(cs) {
		case "", "us-ascii", "utf-8":
			return r, nil
		}
		enc, _ := ianaindex.MIME.Encoding(cs)
		if enc == nil {
			enc, _ = ianaindex.IANA.Encoding(cs)
		}
		if enc != nil {
			return enc.NewDecoder().Reader(r), nil
		}
		// Names seen in the wild that are not registered, e.g. "ks_c_5601-1987".
		cr, err := charset.Reader(cs, r)
		if err != nil {
			return r, fmt.Errorf("unknown charset %q: %w", cs, err)
		}
		return cr, nil
	},
}

// DecodeWords decodes RFC 2047 encoded-words in s, e.g. "=?utf-8?q?J=C3=B6rg?=".
// If s cannot be decoded, it is returned as is.
func DecodeWords(s string) string {
	if !strings.Contains(s, "=?") {
		return s
	}
	ds, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return ds
}

// decodeWord decodes a single encoded-word, returning whether it was one.
func decodeWord(s string) (string, bool) {
	if !strings.HasPrefix(s, "=?") || !strings.HasSuffix(s, "?=") {
		return s, false
	}
	ds, err := wordDecoder.Decode(s)
	if err != nil {
		return s, false
	}
	return ds, true
}
