package session

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"

	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
)

// Reserved record keys.
const (
	KeyID        = "sessionID"
	KeyIP        = "sessionIP"
	KeyUserAgent = "sessionUserAgent"
)

// IsReserved reports whether key is managed by the session layer. Handlers
// that let clients choose keys must refuse reserved ones.
func IsReserved(key string) bool {
	switch key {
	case KeyID, KeyIP, KeyUserAgent:
		return true
	}
	return false
}

// Record is the key/value payload stored for one session. It always holds
// KeyID; after the first request it also holds the client fingerprint.
type Record map[string]any

// NewRecord returns a bare record for id.
func NewRecord(id string) Record {
	return Record{KeyID: id}
}

// Clone returns a shallow copy. Cloning nil yields nil.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// ID returns the identifier stored in the record.
func (r Record) ID() string {
	id, _ := r[KeyID].(string)
	return id
}

// Fingerprint returns the stored client fingerprint. ok is false until both
// components have been recorded.
func (r Record) Fingerprint() (fp fingerprint.Fingerprint, ok bool) {
	ip, hasIP := r[KeyIP].(string)
	ua, hasUA := r[KeyUserAgent].(string)
	return fingerprint.Fingerprint{IP: ip, UserAgent: ua}, hasIP && hasUA
}

// EncodeRecord serializes a record for stores that keep bytes.
func EncodeRecord(rec Record) ([]byte, error) {
	if rec == nil {
		rec = Record{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return data, nil
}

// DecodeRecord is the inverse of EncodeRecord. Numbers decode as float64.
func DecodeRecord(data []byte) (Record, error) {
	rec := Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return rec, nil
}

// Snapshot is a read-only, point-in-time copy of a record. Later writes to
// the session are not reflected in it and it exposes no way to change it.
type Snapshot struct {
	data Record
}

func newSnapshot(rec Record) Snapshot {
	if rec == nil {
		return Snapshot{data: Record{}}
	}
	return Snapshot{data: rec.Clone()}
}

// ID returns the session identifier captured in the snapshot.
func (s Snapshot) ID() string {
	return s.data.ID()
}

// Get returns the value for key as captured.
func (s Snapshot) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (s Snapshot) GetString(key string) (string, bool) {
	return asString(s.data[key])
}

// GetInt returns the value for key when it is numeric.
func (s Snapshot) GetInt(key string) (int, bool) {
	return asInt(s.data[key])
}

// GetBool returns the value for key when it is a bool.
func (s Snapshot) GetBool(key string) (bool, bool) {
	return asBool(s.data[key])
}

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Keys returns the sorted key set.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.data))
}

// Len returns the number of keys.
func (s Snapshot) Len() int {
	return len(s.data)
}

// Map returns a fresh copy of the captured data.
func (s Snapshot) Map() map[string]any {
	return maps.Clone(map[string]any(s.data))
}

func asString(v any) (string, bool) {
	str, ok := v.(string)
	return str, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
