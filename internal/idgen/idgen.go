// Package idgen implements ID generation and validation for bug records.
//
// Bug IDs are short hexadecimal strings: "A3F8C21B". Generated IDs are always
// eight uppercase hex characters; IDs typed by users may be shorter and in
// either case, since lookups normalise to upper case.
package idgen

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// Length is the number of hex characters in a generated ID.
	Length = 8
	// MaxLength is the longest ID accepted from user input.
	MaxLength = 8
)

var idPattern = regexp.MustCompile(`^[A-Fa-f0-9]{1,8}$`)

// New returns a fresh ID: the first eight hex characters of a random
// 128-bit UUID, upper-cased.
func New() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:])[:Length])
}

// Valid reports whether id has the accepted format (1-8 hex characters).
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Validate returns an error describing why id is not a valid bug ID.
func Validate(id string) error {
	if !Valid(id) {
		return fmt.Errorf("idgen: %q is not 1-%d hexadecimal characters", id, MaxLength)
	}
	return nil
}

// Normalize upper-cases id so that lookups are case-insensitive.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
