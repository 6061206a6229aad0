package ldb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/xelnet/xeld/infrastructure/db/database"
)

func validateCurrentCursorKeyAndValue(t *testing.T, testName string, cursor database.Cursor,
	expectedKey *database.Key, expectedValue []byte) {

	cursorKey, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key "+
			"unexpectedly failed: %s", testName, err)
	}
	if !reflect.DeepEqual(cursorKey, expectedKey) {
		t.Fatalf("%s: Key "+
			"returned wrong key. Want: %x, got: %x",
			testName, expectedKey.Bytes(), cursorKey.Bytes())
	}
	cursorValue, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value "+
			"unexpectedly failed for key %s: %s",
			testName, cursorKey, err)
	}
	if !bytes.Equal(cursorValue, expectedValue) {
		t.Fatalf("%s: Value "+
			"returned wrong value for key %s. Want: %x, got: %x",
			testName, cursorKey, expectedValue, cursorValue)
	}
}

// descendingHeightKey lays out a height the way the fork vote store keys
// its entries, so the newest height sorts first.
func descendingHeightKey(height int32) []byte {
	var keyBytes [4]byte
	binary.BigEndian.PutUint32(keyBytes[:], math.MaxUint32-uint32(height))
	return keyBytes[:]
}

func bigEndianUint64(value uint64) []byte {
	var valueBytes [8]byte
	binary.BigEndian.PutUint64(valueBytes[:], value)
	return valueBytes[:]
}

func recoverFromClosedCursorPanic(t *testing.T, testName string) {
	panicErr := recover()
	if panicErr == nil {
		t.Fatalf("%s: cursor unexpectedly "+
			"didn't panic after being closed", testName)
	}
	expectedPanicErr := "closed cursor"
	if !strings.Contains(fmt.Sprintf("%v", panicErr), expectedPanicErr) {
		t.Fatalf("%s: cursor panicked "+
			"with wrong message. Want: %v, got: %s",
			testName, expectedPanicErr, panicErr)
	}
}

// TestCursorSanity walks the vote counts of one soft fork feature, stored
// under descending height keys, and seeks from a height down to the closest
// entry at or below it.
func TestCursorSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorSanity")
	defer teardownFunc()

	// Vote counts of feature 1 at heights 10, 20 and 30, plus one entry
	// of feature 2 the cursor must never reach.
	featureBucket := database.MakeBucket([]byte("fork-votes")).Bucket([]byte{1})
	for i := int32(1); i <= 3; i++ {
		err := ldb.Put(featureBucket.Key(descendingHeightKey(i*10)), bigEndianUint64(uint64(i)))
		if err != nil {
			t.Fatalf("TestCursorSanity: Put "+
				"unexpectedly failed: %s", err)
		}
	}
	otherFeatureBucket := database.MakeBucket([]byte("fork-votes")).Bucket([]byte{2})
	err := ldb.Put(otherFeatureBucket.Key(descendingHeightKey(5)), bigEndianUint64(100))
	if err != nil {
		t.Fatalf("TestCursorSanity: Put "+
			"unexpectedly failed: %s", err)
	}

	// Open a new cursor
	cursor, err := ldb.Cursor(featureBucket)
	if err != nil {
		t.Fatalf("TestCursorSanity: ldb.Cursor "+
			"unexpectedly failed: %s", err)
	}
	defer func() {
		err := cursor.Close()
		if err != nil {
			t.Fatalf("TestCursorSanity: Close "+
				"unexpectedly failed: %s", err)
		}
	}()

	// The first entry is the newest height
	hasNext := cursor.First()
	if !hasNext {
		t.Fatalf("TestCursorSanity: First " +
			"unexpectedly returned non-existance")
	}
	validateCurrentCursorKeyAndValue(t, "TestCursorSanity", cursor,
		featureBucket.Key(descendingHeightKey(30)), bigEndianUint64(3))

	// Seeking a height between two entries lands on the lower one
	err = cursor.Seek(featureBucket.Key(descendingHeightKey(25)))
	if err != nil {
		t.Fatalf("TestCursorSanity: Seek "+
			"unexpectedly failed: %s", err)
	}
	validateCurrentCursorKeyAndValue(t, "TestCursorSanity", cursor,
		featureBucket.Key(descendingHeightKey(20)), bigEndianUint64(2))

	// An exact height lands on itself
	err = cursor.Seek(featureBucket.Key(descendingHeightKey(10)))
	if err != nil {
		t.Fatalf("TestCursorSanity: Seek "+
			"unexpectedly failed: %s", err)
	}
	validateCurrentCursorKeyAndValue(t, "TestCursorSanity", cursor,
		featureBucket.Key(descendingHeightKey(10)), bigEndianUint64(1))

	// There is nothing at or below height 5 for this feature
	err = cursor.Seek(featureBucket.Key(descendingHeightKey(5)))
	if err == nil {
		t.Fatalf("TestCursorSanity: Seek " +
			"below the oldest entry unexpectedly succeeded")
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestCursorSanity: Seek "+
			"returned wrong error: %s", err)
	}

	// Walk the whole feature from the newest entry. Key and Value
	// calls past the oldest entry return ErrNotFound.
	if !cursor.First() {
		t.Fatalf("TestCursorSanity: First " +
			"unexpectedly returned non-existance")
	}
	for _, height := range []int32{20, 10} {
		if !cursor.Next() {
			t.Fatalf("TestCursorSanity: Next "+
				"unexpectedly done before height %d", height)
		}
		validateCurrentCursorKeyAndValue(t, "TestCursorSanity", cursor,
			featureBucket.Key(descendingHeightKey(height)), bigEndianUint64(uint64(height/10)))
	}
	hasNext = cursor.Next()
	if hasNext {
		t.Fatalf("TestCursorSanity: Next " +
			"after the oldest entry is unexpectedly not done")
	}
	_, err = cursor.Key()
	if err == nil {
		t.Fatalf("TestCursorSanity: Key " +
			"unexpectedly succeeded")
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestCursorSanity: Key "+
			"returned wrong error: %s", err)
	}
	_, err = cursor.Value()
	if err == nil {
		t.Fatalf("TestCursorSanity: Value " +
			"unexpectedly succeeded")
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestCursorSanity: Value "+
			"returned wrong error: %s", err)
	}
}

func TestCursorCloseErrors(t *testing.T) {
	tests := []struct {
		name string

		// function is the LevelDBCursor function that we're
		// verifying returns an error after the cursor had
		// been closed.
		function func(dbTx database.Cursor) error
	}{
		{
			name: "Seek",
			function: func(cursor database.Cursor) error {
				return cursor.Seek(database.MakeBucket(nil).Key([]byte{}))
			},
		},
		{
			name: "Key",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Key()
				return err
			},
		},
		{
			name: "Value",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Value()
				return err
			},
		},
		{
			name: "Close",
			function: func(cursor database.Cursor) error {
				return cursor.Close()
			},
		},
	}

	for _, test := range tests {
		func() {
			ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorCloseErrors")
			defer teardownFunc()

			// Open a new cursor
			cursor, err := ldb.Cursor(database.MakeBucket(nil))
			if err != nil {
				t.Fatalf("TestCursorCloseErrors: ldb.Cursor "+
					"unexpectedly failed: %s", err)
			}

			// Close the cursor
			err = cursor.Close()
			if err != nil {
				t.Fatalf("TestCursorCloseErrors: Close "+
					"unexpectedly failed: %s", err)
			}

			expectedErrContainsString := "closed cursor"

			// Make sure that the test function returns a "closed transaction" error
			err = test.function(cursor)
			if err == nil {
				t.Fatalf("TestCursorCloseErrors: %s "+
					"unexpectedly succeeded", test.name)
			}
			if !strings.Contains(err.Error(), expectedErrContainsString) {
				t.Fatalf("TestCursorCloseErrors: %s "+
					"returned wrong error. Want: %s, got: %s",
					test.name, expectedErrContainsString, err)
			}
		}()
	}
}

func TestCursorCloseFirstAndNext(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorCloseFirstAndNext")
	defer teardownFunc()

	// Block ids by ascending height
	heightBucket := database.MakeBucket([]byte("block-ids-by-height"))
	for height := uint32(0); height < 10; height++ {
		var key [4]byte
		binary.BigEndian.PutUint32(key[:], height)
		err := ldb.Put(heightBucket.Key(key[:]), bigEndianUint64(uint64(height)+1000))
		if err != nil {
			t.Fatalf("TestCursorCloseFirstAndNext: Put "+
				"unexpectedly failed: %s", err)
		}
	}

	// Open a new cursor
	cursor, err := ldb.Cursor(heightBucket)
	if err != nil {
		t.Fatalf("TestCursorCloseFirstAndNext: ldb.Cursor "+
			"unexpectedly failed: %s", err)
	}

	// Close the cursor
	err = cursor.Close()
	if err != nil {
		t.Fatalf("TestCursorCloseFirstAndNext: Close "+
			"unexpectedly failed: %s", err)
	}

	// We expect First to panic
	func() {
		defer recoverFromClosedCursorPanic(t, "TestCursorCloseFirstAndNext")
		cursor.First()
	}()

	// We expect Next to panic
	func() {
		defer recoverFromClosedCursorPanic(t, "TestCursorCloseFirstAndNext")
		cursor.Next()
	}()
}
