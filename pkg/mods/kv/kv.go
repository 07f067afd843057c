// Package kv implements the kv API module, a key-value store backed by a
// bbolt database. Values are stored as JSON.
package kv

import (
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
	"src.furver.dev/pkg/eval"
	"src.furver.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[kv] ")

const bucketKV = "kv"

// ErrNoPath is returned by Open when the path is empty.
var ErrNoPath = errors.New("kv: no database path configured")

// DB is an open key-value database.
type DB struct {
	db *bolt.DB
}

// Open opens the database at path, creating it if necessary.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Println("opened", path)
	return &DB{db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Get returns the value stored under key, or nil if there is none.
func (d *DB) Get(key string) (any, error) {
	var value any
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketKV)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &value)
	})
	return value, err
}

// Put stores value under key.
func (d *DB) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Put([]byte(key), data)
	})
}

// Delete deletes the value stored under key. Deleting a missing key is not an
// error.
func (d *DB) Delete(key string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Delete([]byte(key))
	})
}

// Keys returns all keys, sorted.
func (d *DB) Keys() ([]any, error) {
	keys := []any{}
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Env returns the bindings of the module.
func (d *DB) Env() *eval.Env {
	return eval.BuildEnv().
		AddGoFns(map[string]any{
			"kv-get":    d.Get,
			"kv-put":    d.Put,
			"kv-delete": d.Delete,
			"kv-keys":   d.Keys,
		}).
		Env()
}
