package pebbledb

import (
	"io"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/infrastructure/db/database"
)

// PebbleDB defines a thin wrapper around pebble.
type PebbleDB struct {
	db    *pebble.DB
	cache *pebble.Cache
}

// NewPebbleDB opens a pebble instance defined by the given path.
func NewPebbleDB(path string, cacheSizeMiB int) (*PebbleDB, error) {
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cache := pebble.NewCache(int64(cacheSizeMiB) << 20)
	options := &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: 500,
	}
	db, err := pebble.Open(path, options)
	if err != nil {
		cache.Unref()
		return nil, errors.Wrapf(err, "failed to open pebble database at %s", path)
	}
	log.Debugf("Opened pebble database at %s", path)

	return &PebbleDB{db: db, cache: cache}, nil
}

// Compact compacts the whole key range of the pebble instance.
func (db *PebbleDB) Compact() error {
	iterator, err := db.db.NewIter(nil)
	if err != nil {
		return errors.WithStack(err)
	}
	var start, end []byte
	if iterator.First() {
		start = append([]byte(nil), iterator.Key()...)
	}
	if iterator.Last() {
		end = append([]byte(nil), iterator.Key()...)
	}
	err = iterator.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	if start == nil {
		return nil
	}
	return errors.WithStack(db.db.Compact(start, append(end, 0), true))
}

// Close closes the pebble instance.
func (db *PebbleDB) Close() error {
	err := db.db.Close()
	db.cache.Unref()
	return errors.WithStack(err)
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *PebbleDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.db.Set(key.Bytes(), value, pebble.Sync))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *PebbleDB) Get(key *database.Key) ([]byte, error) {
	return get(db.db, key)
}

// Has returns true if the database does contains the
// given key.
func (db *PebbleDB) Has(key *database.Key) (bool, error) {
	return has(db.db, key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *PebbleDB) Delete(key *database.Key) error {
	return errors.WithStack(db.db.Delete(key.Bytes(), pebble.Sync))
}

// Cursor begins a new cursor over the given bucket.
func (db *PebbleDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	iterator, err := db.db.NewIter(bucketIterOptions(bucket))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newPebbleCursor(iterator, bucket), nil
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r reader, key *database.Key) ([]byte, error) {
	value, closer, err := r.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	defer closer.Close()

	// The value is only valid until the closer is closed
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func has(r reader, key *database.Key) (bool, error) {
	_, closer, err := r.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, closer.Close()
}

func bucketIterOptions(bucket *database.Bucket) *pebble.IterOptions {
	prefix := bucket.Path()
	return &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}
}

// prefixUpperBound returns the smallest key that is greater than every key
// starting with prefix, or nil when there is no such key.
func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
