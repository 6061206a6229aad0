package config

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ForgingKeysFile is the layout of the file given by --forgingkeysfile:
//
//	keys:
//	  - name: main
//	    privatekey: 3f1e...
type ForgingKeysFile struct {
	Keys []ForgingKeyEntry `yaml:"keys"`
}

// ForgingKeyEntry is a named hex encoded private key
type ForgingKeyEntry struct {
	Name       string `yaml:"name"`
	PrivateKey string `yaml:"privatekey"`
}

// ParseForgingKeys decodes the keys of a forging keys file
func ParseForgingKeys(r io.Reader) ([]*signing.PrivateKey, error) {
	var file ForgingKeysFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&file)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "invalid forging keys file")
	}

	keys := make([]*signing.PrivateKey, 0, len(file.Keys))
	for i, entry := range file.Keys {
		key, err := parseHexKey(entry.PrivateKey)
		if err != nil {
			return nil, errors.Wrapf(err, "forging key %d (%s)", i, entry.Name)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseHexKey(s string) (*signing.PrivateKey, error) {
	serialized, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, "private key is not hex encoded")
	}
	return signing.ParsePrivateKey(serialized)
}

// loadForgingKeys reads the keys of path, if set, and prompts for one more
// key on stdin when prompt is set
func loadForgingKeys(path string, prompt bool, stdin *os.File) ([]*signing.PrivateKey, error) {
	var keys []*signing.PrivateKey
	if path != "" {
		file, err := os.Open(cleanAndExpandPath(path))
		if err != nil {
			return nil, errors.Wrap(err, "could not open the forging keys file")
		}
		defer file.Close()

		keys, err = ParseForgingKeys(file)
		if err != nil {
			return nil, err
		}
		log.Infof("Loaded %d forging keys from %s", len(keys), path)
	}

	if prompt {
		key, err := promptForgingKey(stdin)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func promptForgingKey(stdin *os.File) (*signing.PrivateKey, error) {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("--promptforgingkey needs a terminal")
	}
	fmt.Print("Enter the hex encoded private key to forge with: ")
	input, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return nil, errors.Wrap(err, "could not read the forging key")
	}
	return parseHexKey(string(input))
}
