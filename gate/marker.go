package gate

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/donphi/gatehouse/engine"
)

var markerHashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// MarkerKey derives the verdict-marker key for a source unit. The key
// covers path and content, so a unit regenerated with different text within
// the same attempt is re-evaluated rather than replayed.
func MarkerKey(path string, content []byte) string {
	h, err := highwayhash.New64(markerHashKey)
	if err != nil {
		return path
	}
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// MarkerStore records scan verdicts for the duration of one execution
// attempt, shared between the outer and inner interception layers. Writes
// happen before the dependent read in program order within an attempt, so
// no locking is required.
type MarkerStore interface {
	Lookup(key string) (engine.Status, bool)
	Record(key string, status engine.Status)
}

// MemoryStore keeps markers in-process, for tests and single-process
// embeddings of both layers.
type MemoryStore struct {
	verdicts map[string]engine.Status
}

// NewMemoryStore creates an empty attempt-scoped store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{verdicts: map[string]engine.Status{}}
}

func (s *MemoryStore) Lookup(key string) (engine.Status, bool) {
	v, ok := s.verdicts[key]
	return v, ok
}

func (s *MemoryStore) Record(key string, status engine.Status) {
	s.verdicts[key] = status
}

// EnvMarker is the environment variable carrying verdict markers across the
// process boundary between the outer shim and the inner layer. A new
// process launch that does not inherit it starts a fresh attempt.
const EnvMarker = "GATEHOUSE_OUTER_VERDICT"

const (
	markerEntrySep = ";"
	markerFieldSep = "="
)

// EnvMarkerStore persists markers in the process environment so they are
// inherited by child processes within the same execution attempt.
type EnvMarkerStore struct{}

func (EnvMarkerStore) Lookup(key string) (engine.Status, bool) {
	raw := os.Getenv(EnvMarker)
	if raw == "" {
		return "", false
	}
	for _, entry := range strings.Split(raw, markerEntrySep) {
		k, v, ok := strings.Cut(entry, markerFieldSep)
		if ok && k == key {
			return engine.Status(v), true
		}
	}
	return "", false
}

func (EnvMarkerStore) Record(key string, status engine.Status) {
	entry := key + markerFieldSep + string(status)
	raw := os.Getenv(EnvMarker)
	if raw == "" {
		os.Setenv(EnvMarker, entry)
		return
	}
	os.Setenv(EnvMarker, raw+markerEntrySep+entry)
}
