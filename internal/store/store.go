// Package store keeps named documents and a journal of executed commands
// in a bbolt database.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketDocs    = "documents"
	bucketJournal = "journal"
)

// Errors returned by the store.
var (
	ErrNoDocument = errors.New("store: no such document")
	ErrNoEntry    = errors.New("store: no such journal entry")
	ErrEmptyName  = errors.New("store: document name is empty")
)

// Store is an open database.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketDocs, bucketJournal} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initializing %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutDocument stores markup under name, replacing any previous content.
func (s *Store) PutDocument(name, markup string) error {
	if name == "" {
		return ErrEmptyName
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDocs)).Put([]byte(name), []byte(markup))
	})
}

// Document returns the markup stored under name.
func (s *Store) Document(name string) (string, error) {
	var markup string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketDocs)).Get([]byte(name))
		if v == nil {
			return ErrNoDocument
		}
		markup = string(v)
		return nil
	})
	return markup, err
}

// DeleteDocument removes name.
func (s *Store) DeleteDocument(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDocs))
		if b.Get([]byte(name)) == nil {
			return ErrNoDocument
		}
		return b.Delete([]byte(name))
	})
}

// Documents returns the stored document names in order.
func (s *Store) Documents() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDocs)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

// Entry is one journaled command.
type Entry struct {
	Seq      int
	Document string
	Command  string
	Args     map[string]any
	Status   string
	Time     time.Time
}

// AddEntry appends e to the journal and returns its sequence number.
func (s *Store) AddEntry(e Entry) (int, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, v)
		}
	}
	set("document", e.Document)
	set("command", e.Command)
	set("status", e.Status)
	set("time", e.Time.UTC().Format(time.RFC3339Nano))
	if len(e.Args) > 0 {
		set("args", e.Args)
	}
	if err != nil {
		return 0, fmt.Errorf("store: encoding entry: %w", err)
	}

	var seq uint64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketJournal))
		var err error
		if seq, err = b.NextSequence(); err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return int(seq), err
}

// Entry returns the journal entry seq.
func (s *Store) Entry(seq int) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketJournal)).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoEntry
		}
		e = decodeEntry(seq, v)
		return nil
	})
	return e, err
}

// Entries returns the journal entries with from <= seq < upto. Zero upto
// means no upper bound. A non-empty document keeps only its entries.
func (s *Store) Entries(from, upto int, document string) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketJournal)).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil; k, v = c.Next() {
			seq := int(unmarshalSeq(k))
			if upto > 0 && seq >= upto {
				break
			}
			e := decodeEntry(seq, v)
			if document != "" && e.Document != document {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func decodeEntry(seq int, data []byte) Entry {
	r := gjson.ParseBytes(data)
	e := Entry{
		Seq:      seq,
		Document: r.Get("document").String(),
		Command:  r.Get("command").String(),
		Status:   r.Get("status").String(),
	}
	e.Time, _ = time.Parse(time.RFC3339Nano, r.Get("time").String())
	if args := r.Get("args"); args.IsObject() {
		e.Args = make(map[string]any)
		args.ForEach(func(k, v gjson.Result) bool {
			e.Args[k.String()] = v.Value()
			return true
		})
	}
	return e
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
