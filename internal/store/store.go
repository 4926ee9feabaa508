package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	uploadsBucket = []byte("uploads")
	savesBucket   = []byte("saves")
	deletesBucket = []byte("deletes")
)

// Store persists upload, save and delete history in a bbolt file.
// Records are kept in insertion order.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{uploadsBucket, savesBucket, deletesBucket} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddUpload appends an upload record.
func (s *Store) AddUpload(r UploadRecord) error {
	return s.appendRecord(uploadsBucket, r)
}

// AddSave appends a configuration save record.
func (s *Store) AddSave(r SaveRecord) error {
	return s.appendRecord(savesBucket, r)
}

// AddDelete appends a delete record.
func (s *Store) AddDelete(r DeleteRecord) error {
	return s.appendRecord(deletesBucket, r)
}

// Uploads returns all upload records, oldest first.
func (s *Store) Uploads() ([]UploadRecord, error) {
	var records []UploadRecord
	err := s.loadRecords(uploadsBucket, func(v []byte) error {
		var r UploadRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// Saves returns all save records, oldest first.
func (s *Store) Saves() ([]SaveRecord, error) {
	var records []SaveRecord
	err := s.loadRecords(savesBucket, func(v []byte) error {
		var r SaveRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// Deletes returns all delete records, oldest first.
func (s *Store) Deletes() ([]DeleteRecord, error) {
	var records []DeleteRecord
	err := s.loadRecords(deletesBucket, func(v []byte) error {
		var r DeleteRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// Session returns the records of one upload session.
func (s *Store) Session(id string) ([]UploadRecord, error) {
	all, err := s.Uploads()
	if err != nil {
		return nil, err
	}
	var out []UploadRecord
	for _, r := range all {
		if r.Session == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) appendRecord(bucket []byte, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var k [8]byte
		binary.BigEndian.PutUint64(k[:], seq)
		return b.Put(k[:], data)
	})
}

func (s *Store) loadRecords(bucket []byte, fn func(v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}
