// Package journal persists the kitchen's event stream to BadgerDB so a
// session can be inspected or replayed after the process exits.
package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

const sessionPrefix = "session/"

// Journal is an append-only event log. It implements sim.EventSink; each
// event is written in its own transaction, keyed by session and sequence.
type Journal struct {
	db      *badger.DB
	session string
	failed  int
}

// Open opens (or creates) a journal under dir and starts a new session.
// An empty session name gets a random one.
func Open(dir, session string) (*Journal, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // badger's own logger is too chatty for the kitchen log

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if session == "" {
		session = uuid.NewString()
	}
	logrus.Infof("journal opened at %s, session %s", absPath, session)
	return &Journal{db: db, session: session}, nil
}

// Session returns the name events are currently written under.
func (j *Journal) Session() string { return j.session }

// Failed returns how many events could not be written.
func (j *Journal) Failed() int { return j.failed }

func eventKey(session string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/event/%020d", sessionPrefix, session, seq))
}

// Emit implements sim.EventSink. Write errors are logged and counted, never
// returned to the kitchen.
func (j *Journal) Emit(e sim.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		j.failed++
		logrus.Errorf("journal: marshal event #%d: %v", e.Seq, err)
		return
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(j.session, e.Seq), data)
	})
	if err != nil {
		j.failed++
		logrus.Errorf("journal: write event #%d: %v", e.Seq, err)
	}
}

// Replay calls fn for every event of session in sequence order. It stops at
// the first error fn returns.
func (j *Journal) Replay(session string, fn func(sim.Event) error) error {
	prefix := []byte(sessionPrefix + session + "/event/")
	return j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e sim.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("journal: decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sessions lists every session with at least one event, in key order.
func (j *Journal) Sessions() ([]string, error) {
	var sessions []string
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		last := ""
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), sessionPrefix)
			name, _, _ := strings.Cut(rest, "/")
			if name != last {
				sessions = append(sessions, name)
				last = name
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close flushes and closes the underlying database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
