package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// KeyInput carries everything that determines a render result. Two inputs
// that differ in any field must yield different keys; identical inputs must
// yield byte-identical keys across processes and restarts.
type KeyInput struct {
	Path        string
	Content     string
	Theme       string
	Preferences map[string]string
}

// normalizedKey is the canonical encoding hashed into a key. The content is
// collapsed to its digest so key derivation stays cheap for large documents,
// and preferences become a slice sorted by name so map order never leaks in.
type normalizedKey struct {
	Path        string      `json:"path"`
	ContentHash string      `json:"content_hash"`
	Theme       string      `json:"theme"`
	Preferences [][2]string `json:"preferences,omitempty"`
}

// Key derives the deterministic cache key for in: SHA-256 hex over the
// canonical JSON encoding. No timestamps or salts.
func Key(in KeyInput) string {
	norm := normalizedKey{
		Path:        in.Path,
		ContentHash: ContentHash(in.Content),
		Theme:       in.Theme,
	}

	if len(in.Preferences) > 0 {
		norm.Preferences = make([][2]string, 0, len(in.Preferences))
		for k, v := range in.Preferences {
			norm.Preferences = append(norm.Preferences, [2]string{k, v})
		}
		sort.Slice(norm.Preferences, func(i, j int) bool {
			return norm.Preferences[i][0] < norm.Preferences[j][0]
		})
	}

	// Field order is fixed by the struct, so encoding cannot fail and is
	// byte-stable.
	data, _ := json.Marshal(norm)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the SHA-256 hex digest of content, used both inside
// key derivation and as the change marker stored with each entry.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
