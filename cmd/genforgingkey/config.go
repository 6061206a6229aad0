package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type configFlags struct {
	Name         string `long:"name" description:"Name of the key in the forging keys file" default:"forger"`
	FromMnemonic bool   `long:"frommnemonic" description:"Read an existing mnemonic from the terminal instead of creating one"`
	Index        uint32 `long:"index" description:"Index of the key derived from the mnemonic"`
	Output       string `short:"o" long:"output" description:"Append the key to this forging keys file instead of printing it"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		return nil, errors.New("--name may not be empty")
	}
	return cfg, nil
}
