package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for analysis-result caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResultKey generates a cache key for an analysis result. Content, prompt
// mode and language all shape the output, so all three are part of the
// key: a taxonomy-mode result must never serve a legacy-mode request.
func ResultKey(content, mode, language string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s", content, mode, language)))
	return "dimascan:v1:" + hex.EncodeToString(hash[:])
}
