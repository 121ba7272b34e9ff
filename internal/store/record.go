package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a mutation targets an id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStorageUnavailable is returned when neither the remote nor the local store accepted an operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidRecord is returned when a record body is not a JSON object.
	ErrInvalidRecord = errors.New("record data must be a JSON object")
)

// Kind names a collection (table) of records.
type Kind string

const (
	KindSponsorships Kind = "sponsorships"
	KindFeedback     Kind = "feedback"
	KindUsage        Kind = "usage_data"

	kindOutbox Kind = "sync_outbox"
)

// Origin tells where a write actually landed.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// Record is one stored document. Data is a JSON object with snake_case column names.
type Record struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time

	// Origin is set by FallbackBackend. A local store keeps it so a remote
	// mirror can be told apart from a row written only on this device.
	Origin Origin
}

// Fields is a partial update keyed by column name.
type Fields map[string]any

// Backend is the CRUD contract every storage technology implements.
// Insert is an upsert by id so replaying a write is harmless.
type Backend interface {
	Name() string
	List(ctx context.Context, kind Kind) ([]Record, error)
	Insert(ctx context.Context, kind Kind, rec Record) (Record, error)
	Update(ctx context.Context, kind Kind, id string, fields Fields) (Record, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// prepare validates the body, fills in id and creation time, and writes both
// back into Data so the document is self-describing on every backend.
func prepare(rec Record) (Record, error) {
	obj, err := decodeObject(rec.Data)
	if err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		var id string
		if raw, ok := obj["id"]; ok {
			_ = json.Unmarshal(raw, &id)
		}
		if id == "" {
			id = uuid.NewString()
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = createdAtOf(obj)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Data, err = mergeFields(rec.Data, Fields{"created_at": rec.CreatedAt})
	if err != nil {
		return Record{}, err
	}
	rec.Data, err = setID(rec.Data, rec.ID)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// fromDocument builds a Record from a stored JSON document.
func fromDocument(data json.RawMessage) (Record, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return Record{}, err
	}
	var id string
	if raw, ok := obj["id"]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	return Record{ID: id, Data: data, CreatedAt: createdAtOf(obj)}, nil
}

func createdAtOf(obj map[string]json.RawMessage) time.Time {
	var ts time.Time
	if raw, ok := obj["created_at"]; ok {
		_ = json.Unmarshal(raw, &ts)
	}
	return ts.UTC()
}

func setID(data json.RawMessage, id string) (json.RawMessage, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(id)
	obj["id"] = raw
	return json.Marshal(obj)
}

func decodeObject(data json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, ErrInvalidRecord
	}
	return obj, nil
}

// mergeFields overlays fields onto a JSON object. The id column is never overwritten.
func mergeFields(data json.RawMessage, fields Fields) (json.RawMessage, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		obj[k] = raw
	}
	return json.Marshal(obj)
}

// sortRecords orders newest first, ties broken by id, so a snapshot always lists the same way.
func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
