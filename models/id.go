// ABOUTME: Canonical deal identifier handling
// ABOUTME: Normalizes between numeric entity IDs and string drag-layer IDs
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DealID is assigned by the server and stable for the lifetime of a deal.
type DealID int64

// String returns the canonical base-10 form used by every string-typed layer.
func (id DealID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseDealID parses a drag-layer or URL identifier into a DealID.
func ParseDealID(s string) (DealID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid deal id %q: %w", s, err)
	}
	return DealID(n), nil
}

// Matches reports whether a string identifier names this deal.
func (id DealID) Matches(s string) bool {
	other, err := ParseDealID(s)
	if err != nil {
		return false
	}
	return other == id
}
