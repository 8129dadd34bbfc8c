// Package storage is the volatile in-process document store.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"mock-response-service/internal/common/metrics"

	"github.com/google/uuid"
)

// ResponsesCollection holds one document per generate request.
const ResponsesCollection = "responses"

// Document is a stored record. Its JSON form is the flattened field map plus
// "id" and "createdAt".
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]interface{}
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Fields)+2)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["id"] = d.ID
	out["createdAt"] = d.CreatedAt.Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UniqueKeys returns the document's correlation keys as strings.
func (d Document) UniqueKeys() map[string]string {
	out := map[string]string{}
	switch keys := d.Fields["uniqueKeys"].(type) {
	case map[string]interface{}:
		for k, v := range keys {
			if v != nil {
				out[k] = fmt.Sprint(v)
			}
		}
	case map[string]string:
		for k, v := range keys {
			out[k] = v
		}
	}
	return out
}

// Store is the document persistence contract used by the flows.
type Store interface {
	CreateCollection(name string)
	Insert(collection string, fields map[string]interface{}) string
	FindByUniqueKey(collection, keyType, value string) []Document
	FindLatest(collection string) (Document, bool)
	Count(collection string) int
	Collections() []string
}

type collection struct {
	docs []Document
	byID map[string]int
}

// MemoryStore guards every collection behind one RWMutex, so each operation
// is atomic with respect to the others.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	now         func() time.Time
}

type Option func(*MemoryStore)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]*collection),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateCollection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(name)
}

func (s *MemoryStore) ensure(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{byID: make(map[string]int)}
		s.collections[name] = c
		metrics.StoreDocuments.WithLabelValues(name).Set(0)
	}
	return c
}

// Insert stores a deep copy of fields and returns the new document id.
func (s *MemoryStore) Insert(collectionName string, fields map[string]interface{}) string {
	doc := Document{
		ID:     uuid.NewString(),
		Fields: copyMap(fields),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc.CreatedAt = s.now()
	c := s.ensure(collectionName)
	c.byID[doc.ID] = len(c.docs)
	c.docs = append(c.docs, doc)
	metrics.StoreDocuments.WithLabelValues(collectionName).Set(float64(len(c.docs)))
	return doc.ID
}

// FindByUniqueKey returns documents whose uniqueKeys[keyType] equals value,
// in insertion order. Unknown collections yield an empty slice.
func (s *MemoryStore) FindByUniqueKey(collectionName, keyType, value string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Document{}
	c, ok := s.collections[collectionName]
	if !ok {
		return out
	}
	for _, doc := range c.docs {
		if v, ok := doc.UniqueKeys()[keyType]; ok && v == value {
			out = append(out, doc.clone())
		}
	}
	return out
}

// FindLatest returns the document with the greatest CreatedAt. Ties go to the
// later insertion.
func (s *MemoryStore) FindLatest(collectionName string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok || len(c.docs) == 0 {
		return Document{}, false
	}
	best := 0
	for i := 1; i < len(c.docs); i++ {
		if !c.docs[i].CreatedAt.Before(c.docs[best].CreatedAt) {
			best = i
		}
	}
	return c.docs[best].clone(), true
}

// FindByID is a direct lookup through the identity index.
func (s *MemoryStore) FindByID(collectionName, id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok {
		return Document{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return Document{}, false
	}
	return c.docs[idx].clone(), true
}

func (s *MemoryStore) Count(collectionName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[collectionName]; ok {
		return len(c.docs)
	}
	return 0
}

func (s *MemoryStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Document) clone() Document {
	return Document{ID: d.ID, CreatedAt: d.CreatedAt, Fields: copyMap(d.Fields)}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, c := range t {
			out[i] = copyValue(c)
		}
		return out
	default:
		return v
	}
}
