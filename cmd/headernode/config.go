// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/indexer"
	"github.com/blockpeer/headernode/wire"
)

const (
	defaultConfigFilename = "headernode.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogLevel       = "info"
	defaultRPCListen      = "127.0.0.1:8332"
)

var (
	defaultHomeDir    = btcdHomeDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

func btcdHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".headernode")
}

// config defines the command-line and INI configuration options, following
// the teacher's go-flags struct-tag convention (long name, description,
// and an ini section where one is warranted).
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store header data"`
	Memory     bool   `long:"memory" description:"Use an in-memory header store instead of --datadir (tests only; nothing persists across restarts)"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	LogLevel   string `long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	TestNet3 bool `long:"testnet" description:"Use the test network"`
	RegTest  bool `long:"regtest" description:"Use the regression test network"`
	SimNet   bool `long:"simnet" description:"Use the simulation test network"`

	ConnectPeers []string `short:"c" long:"connect" description:"Connect only to the specified peers at startup"`

	StartHeight    int32  `long:"startheight" description:"Bootstrap the header chain from this height instead of genesis"`
	StartTip       string `long:"starttip" description:"Hex-encoded 80-byte header at --startheight, optional if --startheight can be resolved via a block explorer"`
	PrevHeader     string `long:"startprevheader" description:"Hex-encoded 80-byte header at --startheight minus one"`
	StartChainwork string `long:"startchainwork" description:"Hex-encoded cumulative chainwork at --startheight, as reported by an external block explorer"`

	Checkpoints bool `long:"checkpoints" description:"Enable checkpoint conformance"`

	RPCListen string `long:"rpclisten" description:"Address for the read-only query HTTP listener"`
}

// loadConfig parses command-line flags (and, if present, an INI config
// file) into a config, filling in network-aware defaults exactly as the
// teacher's loadConfig does: parse once to locate -C/--configfile, then
// parse the file, then re-parse the command line so flags win over the
// file.
func loadConfig() (*config, error) {
	cfg := config{
		ConfigFile:  defaultConfigFile,
		DataDir:     defaultDataDir,
		LogDir:      defaultLogDir,
		LogLevel:    defaultLogLevel,
		RPCListen:   defaultRPCListen,
		Checkpoints: true,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	if _, err := preParser.Parse(); err != nil {
		return nil, err
	}

	if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = preCfg.ConfigFile
	}
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		fileParser := flags.NewParser(&cfg, flags.Default)
		if err := flags.NewIniParser(fileParser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	numNets := 0
	for _, b := range []bool{cfg.TestNet3, cfg.RegTest, cfg.SimNet} {
		if b {
			numNets++
		}
	}
	if numNets > 1 {
		return nil, fmt.Errorf("testnet, regtest, and simnet cannot be used together")
	}

	return &cfg, nil
}

// netParams resolves the chaincfg.Params selected by cfg's network flags,
// defaulting to MainNetParams, following ValidateStartHeight's requirement
// that the chosen network actually permit the requested start height.
func (cfg *config) netParams() *chaincfg.Params {
	switch {
	case cfg.TestNet3:
		return &chaincfg.TestNet3Params
	case cfg.RegTest:
		return &chaincfg.RegressionNetParams
	case cfg.SimNet:
		return &chaincfg.SimNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// startAssertion builds the indexer.StartAssertion a custom --startheight
// needs, before the Node Façade ever opens the store. If the operator
// supplied raw headers (--starttip/--startprevheader/--startchainwork)
// those are decoded directly; otherwise spec.md §4.4's custom start
// bootstrap resolves the same two headers and the chainwork at s from a
// block-explorer HTTPS API, which only mainnet and testnet support
// (errs.ErrUnsupportedExplorer on regtest/simnet).
func (cfg *config) startAssertion(params *chaincfg.Params) (*indexer.StartAssertion, error) {
	if cfg.StartHeight == 0 {
		return nil, nil
	}
	if err := indexer.ValidateStartHeight(cfg.StartHeight, params); err != nil {
		return nil, err
	}

	var tipHeader, prevHeader *wire.BlockHeader
	var work *big.Int

	switch {
	case cfg.StartTip != "" && cfg.PrevHeader != "" && cfg.StartChainwork != "":
		var err error
		tipHeader, err = decodeHexHeader(cfg.StartTip)
		if err != nil {
			return nil, err
		}
		prevHeader, err = decodeHexHeader(cfg.PrevHeader)
		if err != nil {
			return nil, err
		}
		var ok bool
		work, ok = new(big.Int).SetString(cfg.StartChainwork, 16)
		if !ok {
			return nil, errs.New(errs.Configuration, errs.ErrMissingStartHeaders)
		}

	case cfg.StartTip == "" && cfg.PrevHeader == "" && cfg.StartChainwork == "":
		var err error
		prevHeader, tipHeader, work, err = resolveStartHeaders(params, cfg.StartHeight)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errs.New(errs.Configuration, errs.ErrMissingStartHeaders)
	}

	// The chainwork reported for --startheight (whether typed in by hand or
	// resolved via the explorer) is cumulative as of that height itself;
	// the entry at s-1 only needs to exist to satisfy contiguity, its own
	// chainwork is never consulted (spec.md §4.3).
	prevEntry := headerchain.NewEntry(*prevHeader, cfg.StartHeight-1, nil)
	startEntry := headerchain.NewEntryWithWork(*tipHeader, cfg.StartHeight, work)

	return &indexer.StartAssertion{PrevHeader: prevEntry, StartHeader: startEntry}, nil
}
