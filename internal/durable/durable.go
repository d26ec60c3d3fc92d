// Package durable provides an optional write-ahead log for the Directive
// Processor's handlingQueue/cancellingQueue, so a crashed client process
// can replay in-flight directives for diagnostics after restart.
//
// Grounded on pkg/cache/wal's mmap append-log concept, swapped for an
// embedded KV store (dgraph-io/badger/v4) since the unit of durability
// here is a keyed directive record rather than a byte-range cache
// buffer. A nil *Store is valid everywhere a *Store is accepted and
// turns every method into a no-op, matching the teacher's optional
// CacheMetrics pattern of zero overhead when the feature is unused.
package durable

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Record is the durable representation of an in-flight directive.
type Record struct {
	DialogRequestID string `json:"dialogRequestId"`
	MessageID       string `json:"messageId"`
	Namespace       string `json:"namespace"`
	Name            string `json:"name"`
	Payload         []byte `json:"payload,omitempty"`
}

// Store wraps a badger.DB keyed by (dialogRequestId, messageId).
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogAdapter{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open durable store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database. Safe to call on a nil *Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func key(dialogRequestID, messageID string) []byte {
	return []byte(dialogRequestID + "\x00" + messageID)
}

// Put persists a directive as in-flight. A nil *Store is a no-op so
// callers never need to branch on whether durability is enabled. The
// signature matches internal/directive.DurableSink structurally, so a
// *Store can be handed to a Processor without either package importing
// the other's concrete type.
func (s *Store) Put(dialogRequestID, messageID, namespace, name string, payload []byte) error {
	if s == nil {
		return nil
	}
	rec := Record{
		DialogRequestID: dialogRequestID,
		MessageID:       messageID,
		Namespace:       namespace,
		Name:            name,
		Payload:         payload,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal durable record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(dialogRequestID, messageID), b)
	})
}

// Remove deletes a directive's durable record once the processor has
// finished with it (completed, failed, or scrubbed).
func (s *Store) Remove(dialogRequestID, messageID string) error {
	if s == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key(dialogRequestID, messageID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// ReplayAll returns every record still persisted, for diagnostics after
// an unclean shutdown. Returns nil, nil on a nil *Store.
func (s *Store) ReplayAll() ([]Record, error) {
	if s == nil {
		return nil, nil
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal durable record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// badgerLogAdapter routes badger's internal logging through this SDK's
// structured logger instead of badger's default stderr logger.
type badgerLogAdapter struct{}

func (badgerLogAdapter) Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
func (badgerLogAdapter) Warningf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}
func (badgerLogAdapter) Infof(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
func (badgerLogAdapter) Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
