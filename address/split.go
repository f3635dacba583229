package address

import (
	"strings"
)

// Split splits an address list into its top-level items, on any of the bytes
// in delimiters, or on "," if delimiters is empty.
//
// Delimiters inside double-quoted strings, delimiters preceded by a backslash
// and delimiters inside a group (from ":" up to and including ";") do not
// split. Items are not trimmed, and can be empty. A group is returned as a
// single item that includes its closing ";". The delimiter following a group
// does not start an item of its own.
//
// For an empty string, a single empty item is returned.
func Split(s string, delimiters string) []string {
	if s == "" {
		return []string{""}
	}
	if delimiters == "" {
		delimiters = ","
	}

	var items []string
	var pos int
	var inQuote, inGroup, afterGroup bool
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			if i == 0 || prev != '\\' {
				inQuote = !inQuote
			}
		case inQuote:
		case inGroup:
			if c == ';' {
				items = append(items, s[pos:i+1])
				pos = i + 1
				inGroup = false
				afterGroup = true
			}
		case c == ':':
			inGroup = true
		case strings.IndexByte(delimiters, c) >= 0 && (i == 0 || prev != '\\'):
			// A delimiter directly after "g:a;" ends no empty item: "g:a;, b" is
			// ["g:a;", " b"], not ["g:a;", "", " b"].
			if !afterGroup || strings.TrimSpace(s[pos:i]) != "" {
				items = append(items, s[pos:i])
			}
			pos = i + 1
			afterGroup = false
		}
		prev = c
	}
	if pos != len(s) && (!afterGroup || strings.TrimSpace(s[pos:]) != "") {
		items = append(items, s[pos:])
	}
	return items
}
