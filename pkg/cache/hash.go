package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashJSON hashes the JSON encoding of v. Values that cannot be encoded
// hash to the empty input.
func HashJSON(v any) string {
	data, _ := json.Marshal(v)
	return Hash(data)
}
