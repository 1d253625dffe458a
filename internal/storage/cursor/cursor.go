// Package cursor provides opaque pagination token encoding/decoding.
//
// A token captures the last-seen ordering key of a listing, so repeated
// calls progress through a stable ordering even while concurrent writes
// land. Tokens carry a hash of the ordering they were minted for;
// replaying a token against a different ordering is rejected instead of
// silently returning a shifted page.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cursor represents the internal state of a pagination cursor.
type Cursor struct {
	// ID is the last-seen row identifier.
	ID string `json:"id"`
	// CreatedAt is the last-seen creation time in unix milliseconds.
	// Zero for listings ordered by id alone.
	CreatedAt int64 `json:"created_at,omitempty"`
	// OrderHash ensures tokens are invalidated if the ordering changes.
	OrderHash string `json:"order_hash,omitempty"`
}

// New creates a cursor pinned to an ordering expression.
func New(id string, createdAt int64, orderBy string) Cursor {
	return Cursor{
		ID:        id,
		CreatedAt: createdAt,
		OrderHash: HashOrder(orderBy),
	}
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque base64 string to a cursor.
// Returns an error if the token is invalid or malformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}

	if c.ID == "" {
		return Cursor{}, fmt.Errorf("cursor id is empty")
	}

	return c, nil
}

// HashOrder computes a short hash of the ordering expression for cursor
// validation. Returns empty string for empty input.
func HashOrder(orderBy string) string {
	if orderBy == "" {
		return ""
	}
	h := sha256.Sum256([]byte(orderBy))
	return hex.EncodeToString(h[:8]) // 64-bit hash is sufficient for validation
}

// ValidateOrderHash checks if the cursor's order hash matches the current
// ordering. Returns an error if the ordering has changed since the cursor
// was created.
func ValidateOrderHash(c Cursor, currentOrderBy string) error {
	if c.OrderHash != HashOrder(currentOrderBy) {
		return fmt.Errorf("ordering changed since cursor was created")
	}
	return nil
}
