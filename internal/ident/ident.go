// Package ident generates and validates the identifiers used for users and
// files. Ids are xid strings: 20 characters, and sorting them lexically
// orders them by creation time.
package ident

import "github.com/rs/xid"

// New returns a fresh identifier.
func New() string {
	return xid.New().String()
}

// Valid reports whether s has the shape of an identifier produced by New.
// Anything else can never match a stored record.
func Valid(s string) bool {
	if len(s) != 20 {
		return false
	}
	_, err := xid.FromString(s)
	return err == nil
}
