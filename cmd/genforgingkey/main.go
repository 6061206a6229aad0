package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/infrastructure/config"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(cfg *configFlags) error {
	var mnemonic string
	if cfg.FromMnemonic {
		var err error
		mnemonic, err = readMnemonic()
		if err != nil {
			return err
		}
	} else {
		var err error
		mnemonic, err = createMnemonic()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Mnemonic (write it down, it restores the key):\n\n%s\n\n", mnemonic)
	}

	key, err := deriveForgingKey(mnemonic, cfg.Index)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Account: %s\n", key.AccountID())

	if cfg.Output == "" {
		return yaml.NewEncoder(os.Stdout).Encode(keysFile(nil, cfg.Name, key))
	}
	return appendToKeysFile(cfg.Output, cfg.Name, key)
}

func keysFile(existing *config.ForgingKeysFile, name string, key *signing.PrivateKey) *config.ForgingKeysFile {
	file := &config.ForgingKeysFile{}
	if existing != nil {
		file.Keys = append(file.Keys, existing.Keys...)
	}
	file.Keys = append(file.Keys, config.ForgingKeyEntry{
		Name:       name,
		PrivateKey: hex.EncodeToString(key.Serialize()),
	})
	return file
}

func appendToKeysFile(path string, name string, key *signing.PrivateKey) error {
	existing := &config.ForgingKeysFile{}
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(content) > 0 {
		err = yaml.Unmarshal(content, existing)
		if err != nil {
			return errors.Wrapf(err, "%s is not a forging keys file", path)
		}
	}
	for _, entry := range existing.Keys {
		if entry.Name == name {
			return errors.Errorf("%s already has a key named %s", path, name)
		}
	}

	out, err := yaml.Marshal(keysFile(existing, name, key))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}

func readMnemonic() (string, error) {
	fmt.Fprint(os.Stderr, "Enter the mnemonic: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		input, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(input)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
