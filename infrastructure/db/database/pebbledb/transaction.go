package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/infrastructure/db/database"
)

// PebbleDBTransaction reads from a pebble snapshot and writes into a
// pebble batch that is applied atomically on Commit. Writes are not
// visible to reads of the same transaction.
type PebbleDBTransaction struct {
	db       *PebbleDB
	snapshot *pebble.Snapshot
	batch    *pebble.Batch
	isClosed bool
}

// Begin begins a new transaction.
func (db *PebbleDB) Begin() (database.Transaction, error) {
	transaction := &PebbleDBTransaction{
		db:       db,
		snapshot: db.db.NewSnapshot(),
		batch:    db.db.NewBatch(),
		isClosed: false,
	}
	return transaction, nil
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *PebbleDBTransaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}

	tx.isClosed = true
	err := tx.batch.Commit(pebble.Sync)
	if err != nil {
		tx.release()
		return errors.WithStack(err)
	}
	return tx.release()
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *PebbleDBTransaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}

	tx.isClosed = true
	return tx.release()
}

func (tx *PebbleDBTransaction) release() error {
	err := tx.batch.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(tx.snapshot.Close())
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *PebbleDBTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *PebbleDBTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	return errors.WithStack(tx.batch.Set(key.Bytes(), value, nil))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *PebbleDBTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return get(tx.snapshot, key)
}

// Has returns true if the database does contains the
// given key.
func (tx *PebbleDBTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return has(tx.snapshot, key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *PebbleDBTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	return errors.WithStack(tx.batch.Delete(key.Bytes(), nil))
}

// Cursor begins a new cursor over the given bucket.
func (tx *PebbleDBTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	iterator, err := tx.snapshot.NewIter(bucketIterOptions(bucket))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newPebbleCursor(iterator, bucket), nil
}
