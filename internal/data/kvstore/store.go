package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

// Version counts the writes to one key. Every successful write increments it.
type Version int64

const (
	// NoVersion skips the version check on write. Reads return it when the
	// backend could not be reached.
	NoVersion Version = -1
	// Absent is the version of a key that has never been written.
	Absent Version = 0
)

// ErrVersionConflict means the key was written by someone else since it was read.
var ErrVersionConflict = errors.New("stored version changed")

// Backend moves raw bytes for a key. Implementations must be safe for concurrent use
// and must make the version check and the write one atomic step.
type Backend interface {
	// Read returns Absent and no bytes for a missing key.
	Read(ctx context.Context, key string) ([]byte, Version, error)
	// Write stores value when the current version equals expect (or expect is
	// NoVersion) and returns the new version, or ErrVersionConflict.
	Write(ctx context.Context, key string, value []byte, expect Version) (Version, error)
	Close() error
}

// Store is the JSON layer over a Backend. Reads never fail: a missing, unreadable or
// corrupted value leaves dst untouched and reports false. Writes return a
// *domain.StorageError which callers log and move on from.
type Store struct {
	backend Backend
	log     *logger.Logger
	onError func(op string)
}

func New(backend Backend, baseLog *logger.Logger) *Store {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Store{backend: backend, log: baseLog.With("service", "KVStore")}
}

// OnError registers a hook invoked with "read", "decode", "encode", "write" or
// "conflict" on every tolerated failure.
func (s *Store) OnError(fn func(op string)) { s.onError = fn }

// Get decodes the value under key into dst, which must be a non-nil pointer. The
// returned version is what a following Set should expect: NoVersion after a read
// error, otherwise the stored version (Absent when missing) even if decoding failed.
func (s *Store) Get(ctx context.Context, key string, dst any) (Version, bool) {
	if s == nil || s.backend == nil {
		return NoVersion, false
	}
	raw, v, err := s.backend.Read(ctx, key)
	if err != nil {
		s.log.Error("Store read failed, using default", "key", key, "error", err)
		s.fail("read")
		return NoVersion, false
	}
	if v == Absent || len(raw) == 0 {
		s.log.Debug("Store key missing, using default", "key", key)
		return v, false
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		s.log.Error("Store decode target must be a non-nil pointer", "key", key)
		s.fail("decode")
		return v, false
	}
	// Decode into a fresh value so a half-decoded result never reaches dst.
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		s.log.Warn("Stored value is not valid JSON, using default", "key", key, "error", err)
		s.fail("decode")
		return v, false
	}
	rv.Elem().Set(fresh.Elem())
	return v, true
}

// Set encodes value and writes it if the stored version still equals expect.
func (s *Store) Set(ctx context.Context, key string, value any, expect Version) (Version, error) {
	if s == nil || s.backend == nil {
		return NoVersion, &domain.StorageError{Op: "write", Key: key, Err: errors.New("store not initialized")}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Error("Store encode failed", "key", key, "error", err)
		s.fail("encode")
		return NoVersion, &domain.StorageError{Op: "encode", Key: key, Err: err}
	}
	v, err := s.backend.Write(ctx, key, raw, expect)
	if errors.Is(err, ErrVersionConflict) {
		s.log.Info("Store key changed by another writer", "key", key, "expected_version", int64(expect))
		s.fail("conflict")
		return NoVersion, &domain.StorageError{Op: "conflict", Key: key, Err: err}
	}
	if err != nil {
		s.log.Error("Store write failed, keeping in-memory state", "key", key, "error", err)
		s.fail("write")
		return NoVersion, &domain.StorageError{Op: "write", Key: key, Err: err}
	}
	return v, nil
}

func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) fail(op string) {
	if s.onError != nil {
		s.onError(op)
	}
}
