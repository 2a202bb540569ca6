// Package pagination implements keyset paging for the document registry.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned for cursors the server did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last document of a page. Documents are ordered by
// (updated_at, key) descending, so both are needed to resume.
type Cursor struct {
	Key       string
	UpdatedAt time.Time
}

// PageResult is one page of a listing as returned by the API.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// Encode renders the cursor as an opaque token safe to pass in a query
// string. The timestamp goes first since document keys may contain the
// separator.
func (c Cursor) Encode() string {
	if c.Key == "" {
		return ""
	}
	raw := c.UpdatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.Key
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token means the first
// page and yields a nil cursor.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, ErrInvalidCursor
	}

	stamp, key, ok := strings.Cut(string(raw), "|")
	if !ok || key == "" {
		return nil, ErrInvalidCursor
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{Key: key, UpdatedAt: updatedAt}, nil
}

// ParseLimit reads a page size query parameter. Missing, malformed or
// non-positive values fall back to def and anything above max is clamped.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil || n <= 0:
		return def
	case max > 0 && n > max:
		return max
	default:
		return n
	}
}
