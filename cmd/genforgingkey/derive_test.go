package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xelnet/xeld/infrastructure/config"
)

func TestDeriveForgingKeyIsDeterministic(t *testing.T) {
	mnemonic, err := createMnemonic()
	if err != nil {
		t.Fatalf("createMnemonic: %+v", err)
	}

	first, err := deriveForgingKey(mnemonic, 0)
	if err != nil {
		t.Fatalf("deriveForgingKey: %+v", err)
	}
	again, err := deriveForgingKey(mnemonic, 0)
	if err != nil {
		t.Fatalf("deriveForgingKey: %+v", err)
	}
	if !bytes.Equal(first.Serialize(), again.Serialize()) {
		t.Fatalf("deriveForgingKey: the same mnemonic and index gave different keys")
	}

	second, err := deriveForgingKey(mnemonic, 1)
	if err != nil {
		t.Fatalf("deriveForgingKey: %+v", err)
	}
	if first.AccountID() == second.AccountID() {
		t.Fatalf("deriveForgingKey: different indexes gave the same account")
	}
}

func TestDeriveForgingKeyRejectsInvalidMnemonic(t *testing.T) {
	_, err := deriveForgingKey("not a valid mnemonic", 0)
	if err == nil {
		t.Fatalf("deriveForgingKey: expected an error")
	}
}

func TestAppendToKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forging.yaml")
	mnemonic, err := createMnemonic()
	if err != nil {
		t.Fatalf("createMnemonic: %+v", err)
	}

	for i, name := range []string{"first", "second"} {
		key, err := deriveForgingKey(mnemonic, uint32(i))
		if err != nil {
			t.Fatalf("deriveForgingKey: %+v", err)
		}
		err = appendToKeysFile(path, name, key)
		if err != nil {
			t.Fatalf("appendToKeysFile: %+v", err)
		}
	}

	key, err := deriveForgingKey(mnemonic, 2)
	if err != nil {
		t.Fatalf("deriveForgingKey: %+v", err)
	}
	err = appendToKeysFile(path, "first", key)
	if err == nil {
		t.Fatalf("appendToKeysFile: expected a duplicate name to be refused")
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %+v", err)
	}
	defer file.Close()
	keys, err := config.ParseForgingKeys(file)
	if err != nil {
		t.Fatalf("ParseForgingKeys: %+v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("ParseForgingKeys: expected 2 keys, got %d", len(keys))
	}
}
