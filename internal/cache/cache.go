// Package cache implements the content-addressed preview cache: deterministic
// cache keys derived from URLs and a flat on-disk store of generated images.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Purposes distinguish cache entries generated for different operations so a
// preview and a thumbnail for the same URL never share a key.
const (
	PurposePreview   = "preview"
	PurposeThumbnail = "thumbnail"
)

const entryExt = ".jpg"

// Key derives a stable, filesystem-safe cache identifier from a URL and a
// purpose. The key is a fixed-length SHA-256 hex digest, so distinct URLs
// never collide in practice and long URLs never hit path-length limits.
func Key(rawURL, purpose string) string {
	sum := sha256.Sum256([]byte(purpose + "\n" + rawURL))
	return hex.EncodeToString(sum[:])
}

// Store is a flat namespace of generated preview images under a root
// directory. Presence of an entry is determined by a direct existence check
// on the derived key; there is no index file.
type Store struct {
	root         string
	publicPrefix string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
// publicPrefix is the URL prefix under which entries are served.
func NewStore(dir, publicPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Store{root: dir, publicPrefix: publicPrefix}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the filesystem path for a cache key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+entryExt)
}

// Ref returns the public reference under which the entry for key is served.
func (s *Store) Ref(key string) string {
	return s.publicPrefix + "/" + key + entryExt
}

// Exists reports whether an entry for key is present. An existing entry is
// treated as ground truth "already generated", even if written by a
// different cycle.
func (s *Store) Exists(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && !info.IsDir()
}

// Remove deletes the entry for key if present. Used to invalidate a preview
// so the next cycle regenerates it.
func (s *Store) Remove(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}
